// Package vector stores video embeddings and answers nearest neighbour queries.
package vector

import (
	"context"
	"errors"
)

// ErrIncompatible is returned by Load when the saved index was built with a different
// embedding model or dimension.
var ErrIncompatible = errors.New("vector index incompatible with embedder")

// VectorIndex defines vector storage and similarity search.
type VectorIndex interface {
	// Add inserts vectors, replacing any stored under the same ID.
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// VectorResult is a single vector search hit keyed by video ID.
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity for normalized vectors
}
