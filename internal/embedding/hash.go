package embedding

import (
	"context"
	"fmt"
)

// DefaultHashDimensions is used when NewHashEmbedder gets a non-positive dimension.
const DefaultHashDimensions = 256

// HashEmbedder embeds text by hashing its words into a fixed number of signed buckets and
// normalizing the result. Texts that share words land close together. It needs no model or
// network and serves as the local fallback when no embedding API is configured.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a feature hashing embedder with the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the hashed bag of words for text. Text without words embeds to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(text) {
		h := HashString(word)
		// The top bit picks the sign.
		sign := float32(1)
		if h&(1<<31) != 0 {
			sign = -1
		}
		emb[int(h%uint32(e.dimensions))] += sign
	}
	return Normalize(emb), nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the embedding space name.
func (e *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", e.dimensions)
}
