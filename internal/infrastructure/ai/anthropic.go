// Package ai wraps the Anthropic Messages API behind a small chat interface.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
)

// ChatCompleter produces a single completion for a system + user prompt pair.
// The insight orchestrator depends on this rather than a concrete SDK so tests
// can substitute a fake.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AnthropicClient is the production ChatCompleter backed by the Anthropic
// Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *logging.ChanneledLogger
}

// NewAnthropicClient creates a ChatCompleter for the given model. The timeout
// bounds each Complete call on top of whatever deadline the caller carries.
func NewAnthropicClient(apiKey, model string, maxTokens int, timeout time.Duration, logger *logging.ChanneledLogger) *AnthropicClient {
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// Complete sends one user message with a system instruction and returns the
// concatenated text blocks of the response.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		c.logger.AI().Error("Anthropic completion failed", "model", c.model,
			"error", err.Error(), "duration", time.Since(start).String())
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		c.logger.AI().Error("Anthropic returned no text content", "model", c.model,
			"stopReason", string(message.StopReason))
		return "", errors.New("anthropic response contained no text content")
	}

	c.logger.AI().Info("Anthropic completion complete", "model", c.model,
		"inputTokens", message.Usage.InputTokens,
		"outputTokens", message.Usage.OutputTokens,
		"duration", time.Since(start).String())

	return text.String(), nil
}
