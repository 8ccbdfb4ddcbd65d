package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hyperjump/manabu/internal/config"
)

// ErrNotConfigured is returned when neither an API key nor a base URL is set.
var ErrNotConfigured = errors.New("embedding: no api key or base url configured")

// maxBatch bounds the inputs sent in one embeddings request.
const maxBatch = 256

// OpenAIEmbedder calls an OpenAI compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for cfg using the credentials in creds. Requests are
// never retried.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, creds config.LLMConfig, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if creds.APIKey == "" && creds.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", cfg.Dimensions)
	}
	all := []option.RequestOption{option.WithMaxRetries(0)}
	if creds.APIKey != "" {
		all = append(all, option.WithAPIKey(creds.APIKey))
	}
	if creds.BaseURL != "" {
		all = append(all, option.WithBaseURL(creds.BaseURL))
	}
	all = append(all, opts...)
	return &OpenAIEmbedder{
		client:     openai.NewClient(all...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in order. Blank texts are not sent and embed to the zero vector.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		inputs    []string
		positions []int
	)
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			out[i] = make([]float32, e.dimensions)
			continue
		}
		inputs = append(inputs, t)
		positions = append(positions, i)
	}

	for start := 0; start < len(inputs); start += maxBatch {
		end := start + maxBatch
		if end > len(inputs) {
			end = len(inputs)
		}
		vecs, err := e.request(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		for j, v := range vecs {
			out[positions[start+j]] = v
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model:          openai.EmbeddingModel(e.model),
		Dimensions:     openai.Int(int64(e.dimensions)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("embeddings request failed with status %d: %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(inputs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(d.Embedding), e.dimensions)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		vecs[d.Index] = Normalize(v)
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return vecs, nil
}

// Dimensions returns the requested embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the embedding space name.
func (e *OpenAIEmbedder) Model() string {
	return fmt.Sprintf("%s-%d", e.model, e.dimensions)
}

// New picks the embedder for cfg. Provider "openai" requires credentials, "hash" never calls out,
// and "auto" uses the API when credentials exist and hashing otherwise. The result is wrapped in
// a query cache when cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig, creds config.LLMConfig, opts ...option.RequestOption) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case config.EmbeddingHash:
		base = NewHashEmbedder(cfg.Dimensions)
	case config.EmbeddingOpenAI:
		e, err := NewOpenAIEmbedder(cfg, creds, opts...)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		e, err := NewOpenAIEmbedder(cfg, creds, opts...)
		switch {
		case errors.Is(err, ErrNotConfigured):
			base = NewHashEmbedder(cfg.Dimensions)
		case err != nil:
			return nil, err
		default:
			base = e
		}
	}
	return NewCachedEmbedder(base, cfg.CacheSize), nil
}
