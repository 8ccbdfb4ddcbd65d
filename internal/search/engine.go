// Package search answers content queries against the user's video library.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/manabu/internal/embedding"
	"github.com/hyperjump/manabu/internal/keyword"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
	"github.com/hyperjump/manabu/internal/vector"
)

const (
	// DefaultTopK is the number of library matches returned per sub-topic.
	DefaultTopK = 3
	// DefaultTitleBoost weights title matches over description matches.
	DefaultTitleBoost = 2.0
	// candidateFactor widens each side of a fused search before the final cut.
	candidateFactor = 5
)

// Options tune content search. Zero values take the defaults.
type Options struct {
	TopK       int
	TitleBoost float64
	// FuzzyFallback retries with typo tolerant matching when the exact query finds nothing.
	FuzzyFallback bool
	// KeywordWeight and SemanticWeight blend the two result lists once WithSemantic is set.
	// Both zero means an even split.
	KeywordWeight  float64
	SemanticWeight float64
	// MinSemanticScore drops vector hits below this cosine similarity.
	MinSemanticScore float64
}

// Engine runs keyword search over the library, optionally fused with vector search, and
// resolves hits to titles.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	opts         Options
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(storage storage.Storage, keywordIndex keyword.KeywordIndex, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.TitleBoost <= 0 {
		opts.TitleBoost = DefaultTitleBoost
	}
	if opts.KeywordWeight <= 0 && opts.SemanticWeight <= 0 {
		opts.KeywordWeight = 0.5
		opts.SemanticWeight = 0.5
	}
	return &Engine{storage: storage, keywordIndex: keywordIndex, opts: opts}
}

// WithSemantic enables fused keyword and vector search. Returns e for chaining.
func (e *Engine) WithSemantic(embedder embedding.Embedder, vectorIndex vector.VectorIndex) *Engine {
	e.embedder = embedder
	e.vectorIndex = vectorIndex
	return e
}

// SearchContent returns up to TopK library videos matching subTopic, best first. Without a
// semantic index the scores are raw keyword scores; with one they are fused scores in [0,1].
func (e *Engine) SearchContent(ctx context.Context, subTopic string) ([]models.ContentResult, error) {
	subTopic = strings.TrimSpace(subTopic)
	if subTopic == "" {
		return nil, models.ErrEmptySubTopic
	}

	if e.embedder == nil || e.vectorIndex == nil || e.opts.SemanticWeight <= 0 {
		hits, err := e.keywordSearch(ctx, subTopic, e.opts.TopK)
		if err != nil {
			return nil, err
		}
		scored := make([]*FusedResult, len(hits))
		for i, h := range hits {
			scored[i] = &FusedResult{VideoID: h.ID, Score: h.Score, KeywordScore: h.Score}
		}
		return e.resolve(ctx, scored)
	}

	candidates := e.opts.TopK * candidateFactor
	var (
		keywordResults  []*keyword.KeywordResult
		semanticResults []*vector.VectorResult
		errChan         = make(chan error, 2)
		wg              sync.WaitGroup
	)

	if e.opts.KeywordWeight > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := e.keywordSearch(ctx, subTopic, candidates)
			if err != nil {
				errChan <- err
				return
			}
			keywordResults = results
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		queryEmbedding, err := e.embedder.Embed(ctx, subTopic)
		if err != nil {
			errChan <- fmt.Errorf("embedding failed: %w", err)
			return
		}
		results, err := e.vectorIndex.Search(ctx, queryEmbedding, candidates)
		if err != nil {
			errChan <- fmt.Errorf("vector search failed: %w", err)
			return
		}
		semanticResults = results
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	fused := Fuse(
		NormalizeKeywordScores(keywordResults),
		NormalizeSemanticScores(semanticResults, e.opts.MinSemanticScore),
		e.opts.KeywordWeight, e.opts.SemanticWeight,
	)
	return e.resolve(ctx, fused)
}

func (e *Engine) keywordSearch(ctx context.Context, subTopic string, limit int) ([]*keyword.KeywordResult, error) {
	hits, err := e.keywordIndex.Search(ctx, subTopic, limit, &keyword.SearchOptions{TitleBoost: e.opts.TitleBoost})
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	if len(hits) == 0 && e.opts.FuzzyFallback {
		hits, err = e.keywordIndex.Search(ctx, subTopic, limit, &keyword.SearchOptions{
			TitleBoost:   e.opts.TitleBoost,
			FuzzyEnabled: true,
			Fuzziness:    1,
		})
		if err != nil {
			return nil, fmt.Errorf("fuzzy search failed: %w", err)
		}
	}
	return hits, nil
}

// resolve loads titles for scored IDs in order, skipping IDs no longer in storage, and keeps
// the first TopK.
func (e *Engine) resolve(ctx context.Context, scored []*FusedResult) ([]models.ContentResult, error) {
	ids := make([]string, len(scored))
	for i, r := range scored {
		ids[i] = r.VideoID
	}
	videos, err := e.storage.GetVideos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load videos: %w", err)
	}

	results := make([]models.ContentResult, 0, e.opts.TopK)
	for _, r := range scored {
		if len(results) == e.opts.TopK {
			break
		}
		v, ok := videos[r.VideoID]
		if !ok {
			// Stale index entry.
			continue
		}
		title := v.Title
		if title == "" {
			title = v.ID
		}
		results = append(results, models.ContentResult{Title: title, Score: r.Score})
	}
	return results, nil
}
