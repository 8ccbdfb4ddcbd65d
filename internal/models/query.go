package models

import (
	"errors"
	"strings"
)

// ErrEmptyTopic is returned when a topic is blank after trimming.
var ErrEmptyTopic = errors.New("topic cannot be empty")

// ErrEmptySubTopic is returned when a sub-topic request carries no text.
var ErrEmptySubTopic = errors.New("sub-topic cannot be empty")

// SubTopic is one decomposed unit of a topic, searched independently.
type SubTopic string

// DecomposeRequest is the body sent to the decomposition service.
type DecomposeRequest struct {
	Topic string `json:"topic"`
}

// Validate trims the topic and rejects blank input.
func (r *DecomposeRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}

// DecomposeResponse is the decomposition service reply. SubTopics holds newline-delimited text
// and is nil when the field is absent.
type DecomposeResponse struct {
	SubTopics *string `json:"subTopics,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// SubTopicRequest is the body sent to both search services.
type SubTopicRequest struct {
	SubTopic string `json:"subTopic"`
}

// Validate trims the sub-topic and rejects blank input.
func (r *SubTopicRequest) Validate() error {
	r.SubTopic = strings.TrimSpace(r.SubTopic)
	if r.SubTopic == "" {
		return ErrEmptySubTopic
	}
	return nil
}
