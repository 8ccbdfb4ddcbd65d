// Package research implements the sub-topic query aggregation pipeline: a topic is decomposed
// into sub-topics, each sub-topic is searched against the content and video services
// concurrently, and each combined result is rendered as soon as it settles.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/manabu/internal/models"
	"go.uber.org/zap"
)

// ErrNoSubTopics is the terminal, non-failure outcome of a decomposition that produced nothing usable.
var ErrNoSubTopics = errors.New("no sub-topics generated")

// DecomposeService turns a topic into newline-delimited sub-topic text.
type DecomposeService interface {
	Decompose(ctx context.Context, topic string) (*models.DecomposeResponse, error)
}

// Decomposer issues the decomposition request and parses its reply.
type Decomposer struct {
	service DecomposeService
	logger  *zap.Logger
}

// NewDecomposer creates a decomposer over service.
func NewDecomposer(service DecomposeService, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{service: service, logger: logger}
}

// Decompose requests sub-topics for topic. It returns ErrNoSubTopics when the reply has no
// subTopics field or nothing remains after filtering blank lines.
func (d *Decomposer) Decompose(ctx context.Context, topic string) ([]models.SubTopic, error) {
	resp, err := d.service.Decompose(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("decompose topic: %w", err)
	}
	if resp.SubTopics == nil {
		return nil, ErrNoSubTopics
	}
	subs := ParseSubTopics(*resp.SubTopics)
	if len(subs) == 0 {
		return nil, ErrNoSubTopics
	}
	d.logger.Debug("topic decomposed", zap.String("topic", topic), zap.Int("sub_topics", len(subs)))
	return subs, nil
}

// ParseSubTopics splits text on newlines, trims each line, and drops empty lines.
// Order is preserved.
func ParseSubTopics(text string) []models.SubTopic {
	lines := strings.Split(text, "\n")
	out := make([]models.SubTopic, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, models.SubTopic(line))
	}
	return out
}
