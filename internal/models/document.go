// Package models defines core data structures for research runs, search results, and the content library.
package models

import (
	"strings"
	"time"
)

// Video is an entry of the user's content library, built from an uploaded watch history.
// Summary is generated from the description at ingest when a summarizer is configured.
type Video struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Channel     string    `json:"channel,omitempty" db:"channel"`
	Summary     string    `json:"summary,omitempty" db:"summary"`
	WatchedAt   time.Time `json:"watched_at,omitempty" db:"watched_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// WatchEntry is one video reference extracted from an uploaded file, before enrichment.
type WatchEntry struct {
	VideoID   string
	Title     string
	WatchedAt time.Time
}

// IndexText returns the text indexed for full-text search.
func (v *Video) IndexText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{v.Title, v.Summary, v.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// EmbedText returns the text embedded for semantic search: the title with the summary when
// one was generated, otherwise with the description.
func (v *Video) EmbedText() string {
	body := v.Summary
	if body == "" {
		body = v.Description
	}
	if body == "" {
		return v.Title
	}
	if v.Title == "" {
		return body
	}
	return v.Title + "\n" + body
}
