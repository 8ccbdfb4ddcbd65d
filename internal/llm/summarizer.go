package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hyperjump/manabu/internal/config"
)

// Summarizer shortens video descriptions.
type Summarizer struct {
	client openai.Client
	model  string
	prompt string
}

// NewSummarizer creates a Summarizer from cfg using cfg.SummaryPrompt. Requests are never retried.
func NewSummarizer(cfg config.LLMConfig, opts ...option.RequestOption) (*Summarizer, error) {
	client, err := newClient(cfg, opts)
	if err != nil {
		return nil, err
	}
	prompt := cfg.SummaryPrompt
	if prompt == "" {
		prompt = config.DefaultSummaryPrompt
	}
	return &Summarizer{client: client, model: cfg.Model, prompt: prompt}, nil
}

// Summarize returns a short summary of description. A blank description is not sent and
// summarizes to "".
func (s *Summarizer) Summarize(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.prompt),
			openai.UserMessage(description),
		},
	})
	if err != nil {
		return "", chatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
