// Package cli provides CLI utilities for manabu.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/manabu/internal/render"
	"github.com/hyperjump/manabu/internal/research"
)

// OutputFormat is the format for research output.
type OutputFormat string

const (
	// OutputText is human-readable terminal text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is one JSON event per line for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// NewRenderer returns the renderer for format. plain disables terminal styling.
func NewRenderer(format OutputFormat, runID string, plain bool) render.Renderer {
	if format == OutputJSON {
		return render.NewJSONRenderer(runID)
	}
	return render.NewTextRenderer(plain)
}

// WriteSummary writes the closing line of a run.
func WriteSummary(w io.Writer, r render.Renderer, summary research.Summary) error {
	if j, ok := r.(*render.JSONRenderer); ok {
		_, err := w.Write(j.Done(summary.Rendered, summary.Failed))
		return err
	}
	if summary.Rendered == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%d sub-topics, %d unavailable\n", summary.Rendered, summary.Failed)
	return err
}

// BuildTopic joins positional args into one topic so quoting is optional.
func BuildTopic(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// ArgsReorder moves flags that follow positional args to the front so the flag package
// parses "research go concurrency --format json" as intended.
func ArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}
