package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/pkg/utils"
)

// maxTitleWidth truncates long titles in terminal output.
const maxTitleWidth = 96

// TextRenderer renders blocks for a terminal.
type TextRenderer struct {
	heading lipgloss.Style
	section lipgloss.Style
	score   lipgloss.Style
	link    lipgloss.Style
	errText lipgloss.Style
	muted   lipgloss.Style
}

// NewTextRenderer creates a terminal renderer. When plain is true no styling is applied.
func NewTextRenderer(plain bool) *TextRenderer {
	if plain {
		s := lipgloss.NewStyle()
		return &TextRenderer{heading: s, section: s, score: s, link: s, errText: s, muted: s}
	}
	return &TextRenderer{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		section: lipgloss.NewStyle().Underline(true),
		score:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		link:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   lipgloss.NewStyle().Faint(true),
	}
}

// Record implements Renderer.
func (t *TextRenderer) Record(rec *models.Record) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", t.heading.Render(string(rec.SubTopic)))
	fmt.Fprintf(&b, "  %s\n", t.section.Render(ContentHeading))
	if len(rec.Primary) == 0 {
		fmt.Fprintf(&b, "    %s\n", t.muted.Render("(none)"))
	}
	for _, r := range rec.Primary {
		fmt.Fprintf(&b, "    - %s (Relevance Score: %s)\n",
			utils.Truncate(r.Title, maxTitleWidth), t.score.Render(FormatScore(r.Score)))
	}
	fmt.Fprintf(&b, "  %s\n", t.section.Render(VideoHeading))
	if len(rec.Secondary) == 0 {
		fmt.Fprintf(&b, "    %s\n", t.muted.Render("(none)"))
	}
	for _, v := range rec.Secondary {
		fmt.Fprintf(&b, "    - %s\n      %s\n", utils.Truncate(v.Title, maxTitleWidth), t.link.Render(WatchURL(v.VideoID)))
	}
	return []byte(b.String())
}

// Failure implements Renderer.
func (t *TextRenderer) Failure(sub models.SubTopic, err error) []byte {
	msg := "results unavailable"
	if err != nil {
		msg += ": " + err.Error()
	}
	return []byte(fmt.Sprintf("\n%s\n  %s\n", t.heading.Render(string(sub)), t.errText.Render(msg)))
}

// Message implements Renderer.
func (t *TextRenderer) Message(kind MessageKind, text string) []byte {
	if kind == MessageError {
		return []byte(t.errText.Render(text) + "\n")
	}
	return []byte(text + "\n")
}

// Busy implements Renderer. Only the start of the busy period is printed.
func (t *TextRenderer) Busy(on bool) []byte {
	if !on {
		return nil
	}
	return []byte(t.muted.Render("Generating sub-topics...") + "\n")
}
