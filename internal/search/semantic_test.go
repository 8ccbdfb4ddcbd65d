package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/hyperjump/manabu/internal/indexer"
	"github.com/hyperjump/manabu/internal/keyword"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
	"github.com/hyperjump/manabu/internal/vector"
)

// conceptEmbedder places text on one axis per concept so synonyms share a direction that
// keyword search cannot see.
type conceptEmbedder struct {
	concepts [][]string
	err      error
}

func (c *conceptEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	v := make([]float32, len(c.concepts))
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for i, words := range c.concepts {
			for _, w := range words {
				if word == w {
					v[i] = 1
				}
			}
		}
	}
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	if sum > 0 {
		norm := float32(1 / math.Sqrt(sum))
		for i := range v {
			v[i] *= norm
		}
	}
	return v, nil
}

func (c *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *conceptEmbedder) Dimensions() int { return len(c.concepts) }
func (c *conceptEmbedder) Model() string   { return "concepts" }

var testConcepts = [][]string{
	{"car", "automobile", "vehicle"},
	{"bread", "sourdough", "baking"},
	{"goroutine", "concurrency"},
}

func testSemanticEngine(t *testing.T, opts Options, emb *conceptEmbedder, videos ...*models.Video) *Engine {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	kwIndex, err := keyword.NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kwIndex.Close() })
	vi, err := vector.NewMemoryIndex(emb.Dimensions(), emb.Model())
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.NewIndexer(store, kwIndex, indexer.WithSemantic(emb, vi, ""))
	if err := idx.IndexVideos(ctx, videos); err != nil {
		t.Fatal(err)
	}
	if vi.Size() != len(videos) {
		t.Fatalf("vector index size = %d, want %d", vi.Size(), len(videos))
	}
	return NewEngine(store, kwIndex, opts).WithSemantic(emb, vi)
}

func TestEngine_FusedFindsSynonyms(t *testing.T) {
	e := testSemanticEngine(t, Options{MinSemanticScore: 0.2}, &conceptEmbedder{concepts: testConcepts},
		&models.Video{ID: "a", Title: "Automobile repair at home"},
		&models.Video{ID: "b", Title: "Sourdough for beginners"},
	)

	results, err := e.SearchContent(context.Background(), "car maintenance")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Automobile repair at home" {
		t.Fatalf("results = %+v", results)
	}
	// Semantic only: 0.5 weight times cosine 1.
	if results[0].Score < 0.49 || results[0].Score > 0.51 {
		t.Errorf("score = %v, want 0.5", results[0].Score)
	}
}

func TestEngine_FusedRanksAgreementFirst(t *testing.T) {
	e := testSemanticEngine(t, Options{MinSemanticScore: 0.2}, &conceptEmbedder{concepts: testConcepts},
		&models.Video{ID: "a", Title: "Channels explained", Description: "goroutine communication"},
		&models.Video{ID: "b", Title: "Concurrency patterns"},
		&models.Video{ID: "c", Title: "Channels on the TV guide", Description: "cable listings"},
		&models.Video{ID: "d", Title: "Baking bread"},
	)

	results, err := e.SearchContent(context.Background(), "goroutine channels")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	// a matches both ways, b only semantically, c only by keyword with a weaker score.
	want := []string{"Channels explained", "Concurrency patterns", "Channels on the TV guide"}
	for i, r := range results {
		if r.Title != want[i] {
			t.Errorf("position %d = %q, want %q", i, r.Title, want[i])
		}
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("fused score out of range: %+v", r)
		}
		if i > 0 && r.Score > results[i-1].Score {
			t.Errorf("results not sorted by score: %+v", results)
		}
	}
}

func TestEngine_FusedRespectsTopK(t *testing.T) {
	videos := make([]*models.Video, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		videos = append(videos, &models.Video{ID: id, Title: "Goroutine talk " + id})
	}
	e := testSemanticEngine(t, Options{TopK: 2}, &conceptEmbedder{concepts: testConcepts}, videos...)

	results, err := e.SearchContent(context.Background(), "goroutine")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestEngine_FusedEmbeddingErrorPropagates(t *testing.T) {
	emb := &conceptEmbedder{concepts: testConcepts}
	e := testSemanticEngine(t, Options{}, emb, &models.Video{ID: "a", Title: "Car care"})
	emb.err = errors.New("embeddings unavailable")

	if _, err := e.SearchContent(context.Background(), "car"); err == nil || !strings.Contains(err.Error(), "embedding failed") {
		t.Errorf("expected embedding failure, got %v", err)
	}
}

func TestEngine_KeywordOnlyWeightSkipsVectors(t *testing.T) {
	emb := &conceptEmbedder{concepts: testConcepts}
	e := testSemanticEngine(t, Options{KeywordWeight: 1}, emb, &models.Video{ID: "a", Title: "Automobile repair"})
	emb.err = errors.New("must not be called")

	results, err := e.SearchContent(context.Background(), "car")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("keyword only search should not see synonyms: %+v", results)
	}
}
