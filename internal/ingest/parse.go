// Package ingest extracts watched videos from uploaded watch-history files.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperjump/manabu/internal/models"
)

var (
	// ErrUnsupportedFile is returned for files that are neither .html nor .txt.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrNotUTF8 is returned when file content is not valid UTF-8.
	ErrNotUTF8 = errors.New("file is not UTF-8 encoded")
)

// Extensions lists the file extensions Parse understands.
var Extensions = []string{".html", ".txt"}

const historyCellSelector = "div.content-cell.mdl-cell.mdl-cell--6-col.mdl-typography--body-1"

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	textLinkPattern  = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^\s&]*&)*v=|shorts/|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	timestampPattern = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{1,2}, \d{4}, \d{1,2}:\d{2}:\d{2}[ \x{202F}\x{00A0}][AP]M(?: ([A-Z]{2,5}))?`)
)

// zoneOffsets maps the zone abbreviations seen in history exports to their UTC offset in hours.
var zoneOffsets = map[string]int{
	"UTC": 0, "GMT": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
	"CET": 1, "CEST": 2,
	"JST": 9,
}

// Supported reports whether name has an extension Parse understands.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse reads r according to the extension of name and returns the referenced videos,
// first occurrence first, without duplicates.
func Parse(name string, r io.Reader) ([]models.WatchEntry, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}
	if strings.EqualFold(filepath.Ext(name), ".html") {
		return ParseHTML(bytes.NewReader(data))
	}
	return ParseText(string(data)), nil
}

// ParseHTML extracts entries from a watch-history HTML export.
func ParseHTML(r io.Reader) ([]models.WatchEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var entries []models.WatchEntry
	seen := make(map[string]bool)
	doc.Find(historyCellSelector).Each(func(_ int, cell *goquery.Selection) {
		var entry models.WatchEntry
		cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			id := VideoIDFromURL(href)
			if id == "" {
				return true
			}
			entry.VideoID = id
			entry.Title = strings.TrimSpace(a.Text())
			return false
		})
		if entry.VideoID == "" || seen[entry.VideoID] {
			return
		}
		seen[entry.VideoID] = true
		entry.WatchedAt = parseTimestamp(cell.Text())
		entries = append(entries, entry)
	})
	return entries, nil
}

// ParseText extracts video IDs from free text: watch links, short links, or bare IDs one per line.
func ParseText(text string) []models.WatchEntry {
	var entries []models.WatchEntry
	seen := make(map[string]bool)
	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		entries = append(entries, models.WatchEntry{VideoID: id})
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if videoIDPattern.MatchString(line) {
			add(line)
			continue
		}
		for _, m := range textLinkPattern.FindAllStringSubmatch(line, -1) {
			add(m[1])
		}
	}
	return entries
}

// VideoIDFromURL returns the video ID of a YouTube watch URL, or "" when href is not one.
func VideoIDFromURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch {
	case (host == "youtube.com" || host == "m.youtube.com") && u.Path == "/watch":
		id = u.Query().Get("v")
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// parseTimestamp finds a "Jan 2, 2006, 3:04:05 PM MST" style timestamp in text.
// Unknown zones are read as UTC. Returns the zero time when none is found.
func parseTimestamp(text string) time.Time {
	m := timestampPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}
	raw := m[0]
	if m[1] != "" {
		raw = strings.TrimSuffix(raw, " "+m[1])
	}
	raw = strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(raw)
	loc := time.UTC
	if hours, ok := zoneOffsets[m[1]]; ok {
		loc = time.FixedZone(m[1], hours*3600)
	}
	t, err := time.ParseInLocation("Jan 2, 2006, 3:04:05 PM", raw, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
