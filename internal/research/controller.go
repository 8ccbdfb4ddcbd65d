package research

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
	"go.uber.org/zap"
)

// DecomposeFailedText is shown when the decomposition request fails.
const DecomposeFailedText = "Could not generate sub-topics. Please try again."

// Dependencies holds the remote services the pipeline calls.
type Dependencies struct {
	Decompose DecomposeService
	Content   ContentSearcher
	Videos    VideoSearcher
	Logger    *zap.Logger
}

// Controller handles topic submissions for one results sink. A new submission cancels the
// run still in flight for the previous one and waits for it to stop before clearing the sink.
type Controller struct {
	decomposer *Decomposer
	consumer   Consumer
	renderer   render.Renderer
	sink       render.Sink
	indicator  Indicator
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController creates a controller. A nil indicator disables busy output.
func NewController(
	decomposer *Decomposer,
	consumer Consumer,
	renderer render.Renderer,
	sink render.Sink,
	indicator Indicator,
	logger *zap.Logger,
) *Controller {
	if indicator == nil {
		indicator = NopIndicator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		decomposer: decomposer,
		consumer:   consumer,
		renderer:   renderer,
		sink:       sink,
		indicator:  indicator,
		logger:     logger,
	}
}

// New wires a controller from deps with a sink-backed busy indicator.
func New(deps Dependencies, renderer render.Renderer, sink render.Sink, mode string) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = config.RenderIncremental
	}
	executor := NewExecutor(deps.Content, deps.Videos)
	coordinator := NewCoordinator(executor, renderer, sink, mode, logger)
	return NewController(
		NewDecomposer(deps.Decompose, logger),
		coordinator,
		renderer,
		sink,
		NewSinkIndicator(sink, renderer, logger),
		logger,
	)
}

// Submit runs the pipeline for topic under a fresh run ID.
func (c *Controller) Submit(ctx context.Context, topic string) (Summary, error) {
	return c.SubmitRun(ctx, uuid.NewString(), topic)
}

// SubmitRun runs the pipeline for topic: busy on, decompose, busy off, then hand the
// sub-topics to the consumer. It returns once every sub-topic has been rendered.
// A failed decomposition renders one error message and returns the error; an empty
// decomposition renders the "no sub-topics" message and returns a zero summary.
func (c *Controller) SubmitRun(ctx context.Context, runID, topic string) (Summary, error) {
	req := models.DecomposeRequest{Topic: topic}
	if err := req.Validate(); err != nil {
		return Summary{RunID: runID}, err
	}

	ctx, finish := c.begin(ctx)
	defer finish()

	logger := c.logger.With(zap.String("run_id", runID))
	if err := ctx.Err(); err != nil {
		return Summary{RunID: runID}, err
	}
	if err := c.sink.Clear(); err != nil {
		return Summary{RunID: runID}, err
	}

	c.indicator.Show()
	subTopics, err := c.decomposer.Decompose(ctx, req.Topic)
	c.indicator.Hide()

	switch {
	case errors.Is(err, ErrNoSubTopics):
		logger.Info("no sub-topics generated", zap.String("topic", req.Topic))
		return Summary{RunID: runID}, c.sink.Append(c.renderer.Message(render.MessageEmpty, render.NoSubTopicsText))
	case err != nil && ctx.Err() != nil:
		logger.Debug("decomposition cancelled", zap.Error(err))
		return Summary{RunID: runID}, ctx.Err()
	case err != nil:
		logger.Error("decomposition failed", zap.String("topic", req.Topic), zap.Error(err))
		if werr := c.sink.Append(c.renderer.Message(render.MessageError, DecomposeFailedText)); werr != nil {
			logger.Debug("error message write failed", zap.Error(werr))
		}
		return Summary{RunID: runID}, err
	}

	logger.Info("researching topic", zap.String("topic", req.Topic), zap.Int("sub_topics", len(subTopics)))
	summary, err := c.consumer.Run(ctx, subTopics)
	summary.RunID = runID
	if err != nil {
		logger.Error("research run aborted", zap.Error(err))
		return summary, err
	}
	logger.Info("research run complete",
		zap.Int("rendered", summary.Rendered), zap.Int("failed", summary.Failed))
	return summary, nil
}

// begin cancels and waits for the previous run, then registers a new one.
func (c *Controller) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	c.mu.Lock()
	prevCancel, prevDone := c.cancel, c.done
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	return ctx, func() {
		cancel()
		close(done)
	}
}
