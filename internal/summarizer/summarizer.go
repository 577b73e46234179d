// Package summarizer produces short grounded summaries of page content for
// get_contents' include_summary option. It is an out-of-scope external
// collaborator named only at its interface.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const maxContentChars = 5000

// Summarizer generates a word-budgeted summary of a page's content.
type Summarizer interface {
	Summarize(ctx context.Context, content string, maxWords int) (string, error)
}

// Config holds the chat-completion backend's settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type chatSummarizer struct {
	client *openai.Client
	model  string
}

// New builds a Summarizer backed by an OpenAI-compatible chat completion API.
func New(cfg Config) Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &chatSummarizer{client: openai.NewClientWithConfig(clientCfg), model: model}
}

func (s *chatSummarizer) Summarize(ctx context.Context, content string, maxWords int) (string, error) {
	if content == "" {
		return "", nil
	}
	truncated := content
	if len(truncated) > maxContentChars {
		truncated = truncated[:maxContentChars]
	}

	prompt := fmt.Sprintf(
		"Summarize the following content in at most %d words. Be factual and concise.\n\n%s",
		maxWords, truncated,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarizer: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
