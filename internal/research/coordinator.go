package research

import (
	"context"
	"fmt"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
	"go.uber.org/zap"
)

// Summary counts what a run rendered.
type Summary struct {
	RunID     string `json:"runId"`
	SubTopics int    `json:"subTopics"`
	Rendered  int    `json:"rendered"`
	Failed    int    `json:"failed"`
}

// Consumer receives the sub-topics of a decomposition.
type Consumer interface {
	Run(ctx context.Context, subTopics []models.SubTopic) (Summary, error)
}

// Coordinator fans out one query per sub-topic and renders every outcome.
// Only the goroutine calling Run writes to the sink.
type Coordinator struct {
	executor QueryExecutor
	renderer render.Renderer
	sink     render.Sink
	ordered  bool
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator. mode is config.RenderIncremental or config.RenderOrdered.
func NewCoordinator(executor QueryExecutor, renderer render.Renderer, sink render.Sink, mode string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		executor: executor,
		renderer: renderer,
		sink:     sink,
		ordered:  mode == config.RenderOrdered,
		logger:   logger,
	}
}

// Run starts every sub-topic query at once, without a concurrency cap. In incremental mode
// each outcome is rendered as soon as it settles; in ordered mode all outcomes are rendered
// in sub-topic order after the last one settles. A failed sub-topic renders a placeholder and
// never affects its siblings. Run stops rendering when ctx is cancelled or the sink rejects a write.
func (c *Coordinator) Run(ctx context.Context, subTopics []models.SubTopic) (Summary, error) {
	summary := Summary{SubTopics: len(subTopics)}
	if len(subTopics) == 0 {
		return summary, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan models.Outcome, len(subTopics))
	for i, sub := range subTopics {
		go func(i int, sub models.SubTopic) {
			rec, err := c.executor.Query(ctx, sub)
			outcomes <- models.Outcome{Index: i, SubTopic: sub, Record: rec, Err: err}
		}(i, sub)
	}

	if c.ordered {
		settled := make([]models.Outcome, len(subTopics))
		for range subTopics {
			o := <-outcomes
			settled[o.Index] = o
		}
		for _, o := range settled {
			if err := c.render(ctx, o, &summary); err != nil {
				return summary, err
			}
		}
		return summary, nil
	}

	for range subTopics {
		if err := c.render(ctx, <-outcomes, &summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (c *Coordinator) render(ctx context.Context, o models.Outcome, summary *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.Failed() {
		summary.Failed++
		c.logger.Warn("sub-topic query failed", zap.String("sub_topic", string(o.SubTopic)), zap.Error(o.Err))
	}
	if err := render.Render(c.sink, c.renderer, o); err != nil {
		return fmt.Errorf("render sub-topic %q: %w", o.SubTopic, err)
	}
	summary.Rendered++
	return nil
}
