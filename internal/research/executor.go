package research

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/manabu/internal/models"
)

// ContentSearcher queries the semantic-search (primary) service.
type ContentSearcher interface {
	SearchContent(ctx context.Context, sub models.SubTopic) ([]models.ContentResult, error)
}

// VideoSearcher queries the video-search (secondary) service.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, sub models.SubTopic) ([]models.VideoResult, error)
}

// QueryExecutor produces the combined record for one sub-topic.
type QueryExecutor interface {
	Query(ctx context.Context, sub models.SubTopic) (*models.Record, error)
}

// Executor queries both services for one sub-topic and joins the replies.
// It owns no shared state and is safe for concurrent use.
type Executor struct {
	content ContentSearcher
	videos  VideoSearcher
}

// NewExecutor creates an executor over the two search services.
func NewExecutor(content ContentSearcher, videos VideoSearcher) *Executor {
	return &Executor{content: content, videos: videos}
}

// Query issues both searches concurrently and waits for both. If either fails the whole
// query fails with that error and the other request is cancelled.
func (e *Executor) Query(ctx context.Context, sub models.SubTopic) (*models.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		primary   []models.ContentResult
		secondary []models.VideoResult
		errChan   = make(chan error, 2)
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results, err := e.content.SearchContent(ctx, sub)
		if err != nil {
			errChan <- fmt.Errorf("content search failed: %w", err)
			cancel()
			return
		}
		primary = results
	}()
	go func() {
		defer wg.Done()
		results, err := e.videos.SearchVideos(ctx, sub)
		if err != nil {
			errChan <- fmt.Errorf("video search failed: %w", err)
			cancel()
			return
		}
		secondary = results
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	return models.NewRecord(sub, primary, secondary), nil
}
