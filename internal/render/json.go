package render

import (
	"encoding/json"

	"github.com/hyperjump/manabu/internal/models"
)

// Event types of the NDJSON stream.
const (
	EventBusy    = "busy"
	EventRecord  = "record"
	EventFailure = "failure"
	EventMessage = "message"
	EventDone    = "done"
)

// Event is one line of the NDJSON stream.
type Event struct {
	Type     string          `json:"type"`
	RunID    string          `json:"runId,omitempty"`
	Busy     *bool           `json:"busy,omitempty"`
	Record   *models.Record  `json:"record,omitempty"`
	SubTopic models.SubTopic `json:"subTopic,omitempty"`
	Kind     MessageKind     `json:"kind,omitempty"`
	Text     string          `json:"text,omitempty"`
	Error    string          `json:"error,omitempty"`
	Rendered *int            `json:"rendered,omitempty"`
	Failed   *int            `json:"failed,omitempty"`
}

// JSONRenderer renders each block as one NDJSON event line.
type JSONRenderer struct {
	RunID string
}

// NewJSONRenderer creates an NDJSON renderer tagging events with runID.
func NewJSONRenderer(runID string) *JSONRenderer {
	return &JSONRenderer{RunID: runID}
}

// Record implements Renderer.
func (j *JSONRenderer) Record(rec *models.Record) []byte {
	out := *rec
	out.Primary = make([]models.ContentResult, len(rec.Primary))
	for i, r := range rec.Primary {
		r.DisplayScore = FormatScore(r.Score)
		out.Primary[i] = r
	}
	return j.line(Event{Type: EventRecord, Record: &out})
}

// Failure implements Renderer.
func (j *JSONRenderer) Failure(sub models.SubTopic, err error) []byte {
	ev := Event{Type: EventFailure, SubTopic: sub}
	if err != nil {
		ev.Error = err.Error()
	}
	return j.line(ev)
}

// Message implements Renderer.
func (j *JSONRenderer) Message(kind MessageKind, text string) []byte {
	return j.line(Event{Type: EventMessage, Kind: kind, Text: text})
}

// Busy implements Renderer.
func (j *JSONRenderer) Busy(on bool) []byte {
	return j.line(Event{Type: EventBusy, Busy: &on})
}

// Done formats the final event of a run.
func (j *JSONRenderer) Done(rendered, failed int) []byte {
	return j.line(Event{Type: EventDone, Rendered: &rendered, Failed: &failed})
}

func (j *JSONRenderer) line(ev Event) []byte {
	ev.RunID = j.RunID
	data, err := json.Marshal(ev)
	if err != nil {
		// Event only holds strings, numbers, and Record; it always marshals.
		panic(err)
	}
	return append(data, '\n')
}
