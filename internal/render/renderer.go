// Package render turns settled sub-topic outcomes into self-contained blocks and appends
// them to a results sink (HTML page stream, terminal, NDJSON stream, or memory buffer).
package render

import (
	"net/url"
	"strconv"

	"github.com/hyperjump/manabu/internal/models"
)

// VideoWatchURL is the canonical playback URL prefix for video results.
const VideoWatchURL = "https://www.youtube.com/watch?v="

// Section headings shared by all renderers.
const (
	ContentHeading = "From your content"
	VideoHeading   = "Suggested Learning"
)

// MessageKind classifies a user-facing message block.
type MessageKind string

const (
	// MessageEmpty is shown when decomposition produced no sub-topics.
	MessageEmpty MessageKind = "empty"
	// MessageError is shown when a request of the run failed as a whole.
	MessageError MessageKind = "error"
)

// NoSubTopicsText is the terminal message for an empty decomposition.
const NoSubTopicsText = "No sub-topics generated."

// Renderer formats blocks. Implementations are pure: the same input always yields the same bytes.
type Renderer interface {
	// Record formats the combined results of one sub-topic.
	Record(rec *models.Record) []byte
	// Failure formats the placeholder for a sub-topic whose query failed.
	Failure(sub models.SubTopic, err error) []byte
	// Message formats a run-level message.
	Message(kind MessageKind, text string) []byte
	// Busy formats the busy indicator state. It may return nil.
	Busy(on bool) []byte
}

// Render appends the block for outcome to sink.
func Render(sink Sink, r Renderer, outcome models.Outcome) error {
	if outcome.Failed() {
		return sink.Append(r.Failure(outcome.SubTopic, outcome.Err))
	}
	return sink.Append(r.Record(outcome.Record))
}

// FormatScore formats a relevance score with exactly two decimal places.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// WatchURL builds the playback link for a video ID.
func WatchURL(videoID string) string {
	return VideoWatchURL + url.QueryEscape(videoID)
}
