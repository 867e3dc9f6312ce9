// ABOUTME: Anthropic client for reasoning completions
// ABOUTME: Single-attempt Messages API calls; SDK retries are disabled
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is the default Claude model for completions
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicConfig holds configuration for the Anthropic client
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// AnthropicClient wraps the Anthropic Messages API
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicClient creates a client from config
func NewAnthropicClient(config *AnthropicConfig) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := config.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicClient{
		client:      &client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
	}, nil
}

// Name identifies the backend in health reports
func (c *AnthropicClient) Name() string {
	return "anthropic:" + c.model
}

// Complete sends one message and returns the concatenated text blocks
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(c.temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
