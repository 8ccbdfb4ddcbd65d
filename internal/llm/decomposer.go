// Package llm generates sub-topics for a topic and summarizes video descriptions with an
// OpenAI compatible chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hyperjump/manabu/internal/config"
)

// ErrNotConfigured is returned when neither an API key nor a base URL is set.
var ErrNotConfigured = errors.New("llm: no api key or base url configured")

// listMarker matches bullets and numbering the model sometimes puts in front of lines.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)

// Decomposer asks a chat model for sub-topics.
type Decomposer struct {
	client openai.Client
	model  string
	prompt string
}

// New creates a Decomposer from cfg. Requests are never retried.
func New(cfg config.LLMConfig, opts ...option.RequestOption) (*Decomposer, error) {
	client, err := newClient(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Decomposer{
		client: client,
		model:  cfg.Model,
		prompt: cfg.Prompt,
	}, nil
}

func newClient(cfg config.LLMConfig, opts []option.RequestOption) (openai.Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return openai.Client{}, ErrNotConfigured
	}
	all := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		all = append(all, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		all = append(all, option.WithBaseURL(cfg.BaseURL))
	}
	all = append(all, opts...)
	return openai.NewClient(all...), nil
}

func chatError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion failed with status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("chat completion failed: %w", err)
}

// Decompose returns newline separated sub-topics for topic. An empty string means the model
// produced none.
func (d *Decomposer) Decompose(ctx context.Context, topic string) (string, error) {
	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(d.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(d.prompt),
			openai.UserMessage(topic),
		},
	})
	if err != nil {
		return "", chatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return CleanLines(resp.Choices[0].Message.Content), nil
}

// CleanLines strips list markers and blank lines from model output.
func CleanLines(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
