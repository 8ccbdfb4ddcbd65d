package research

import (
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/render"
)

// Indicator is the busy indicator shown while a topic is being decomposed.
type Indicator interface {
	Show()
	Hide()
}

// SinkIndicator writes the renderer's busy markup to a sink.
// Write failures are logged at debug level.
type SinkIndicator struct {
	sink     render.Sink
	renderer render.Renderer
	logger   *zap.Logger
}

// NewSinkIndicator creates an indicator that toggles busy state through sink.
func NewSinkIndicator(sink render.Sink, renderer render.Renderer, logger *zap.Logger) *SinkIndicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SinkIndicator{sink: sink, renderer: renderer, logger: logger}
}

// Show implements Indicator.
func (s *SinkIndicator) Show() { s.set(true) }

// Hide implements Indicator.
func (s *SinkIndicator) Hide() { s.set(false) }

func (s *SinkIndicator) set(on bool) {
	if err := s.sink.Append(s.renderer.Busy(on)); err != nil {
		s.logger.Debug("busy indicator write failed", zap.Bool("busy", on), zap.Error(err))
	}
}

// NopIndicator ignores busy state.
type NopIndicator struct{}

// Show implements Indicator.
func (NopIndicator) Show() {}

// Hide implements Indicator.
func (NopIndicator) Hide() {}
