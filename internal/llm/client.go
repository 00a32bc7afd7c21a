// Package llm wraps the chat-completion API used for grid-condition
// summaries. Calls are fallible and never retried.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/gridpulse/gridpulse/models"
)

// Client wraps the OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a new completion client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = openai.GPT4
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: log.With().Str("component", "llm_client").Logger(),
	}
}

var _ models.CompletionClient = (*Client)(nil)

// Complete sends prepared messages and returns the completion text
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage, maxTokens int) (string, error) {
	reqMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     c.model,
			Messages:  reqMessages,
			MaxTokens: maxTokens,
		},
	)
	if err != nil {
		c.logger.Error().Err(err).Msg("Completion API error")
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("Completion returned empty choices")
		return "", errors.New("empty completion")
	}

	return resp.Choices[0].Message.Content, nil
}

// StripFences removes a surrounding markdown code fence from a completion, if
// present.
func StripFences(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	if idx := strings.Index(clean, "\n"); idx >= 0 {
		clean = clean[idx+1:]
	}
	if idx := strings.LastIndex(clean, "```"); idx >= 0 {
		clean = clean[:idx]
	}
	return strings.TrimSpace(clean)
}
