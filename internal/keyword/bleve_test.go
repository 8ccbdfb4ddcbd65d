package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/manabu/internal/models"
)

func TestBleveIndex_SearchFindsDescription(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()

	ctx := context.Background()
	v := &models.Video{ID: "vid1", Title: "Lecture 4", Description: "Bayesian inference with conjugate priors"}
	if err := idx.Index(ctx, v); err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := idx.Search(ctx, "conjugate", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "vid1" {
		t.Fatalf("results = %+v, want vid1", results)
	}
}

func TestBleveIndex_ReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(context.Background(), &models.Video{ID: "a", Title: "goroutines explained"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("DocCount = %d, want 1", n)
	}
}

func TestBleveIndex_TitleBoostRanksTitleFirst(t *testing.T) {
	idx, err := NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Video{ID: "body", Title: "Weekly vlog", Description: "a short bit on channels and other things in the week"})
	_ = idx.Index(ctx, &models.Video{ID: "title", Title: "Channels", Description: "an overview"})

	results, err := idx.Search(ctx, "channels", 10, &SearchOptions{TitleBoost: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "title" {
		t.Errorf("first result = %s, want title", results[0].ID)
	}
}

func TestBleveIndex_FuzzyToleratesTypos(t *testing.T) {
	idx, err := NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Index(ctx, &models.Video{ID: "k8s", Title: "Kubernetes networking"})

	exact, err := idx.Search(ctx, "kubernetis", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) != 0 {
		t.Errorf("expected no exact match, got %+v", exact)
	}

	fuzzy, err := idx.Search(ctx, "kubernetis", 10, &SearchOptions{FuzzyEnabled: true, Fuzziness: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(fuzzy) != 1 || fuzzy[0].ID != "k8s" {
		t.Errorf("fuzzy results = %+v", fuzzy)
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	idx, err := NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Index(ctx, &models.Video{ID: "x", Title: "delete me"})
	if err := idx.Delete(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	results, _ := idx.Search(ctx, "delete", 10, nil)
	if len(results) != 0 {
		t.Errorf("expected no results after delete, got %d", len(results))
	}
}
