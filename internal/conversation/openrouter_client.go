package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sidekickhq/leadline/pkg/logging"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultMaxTokens   = 300
	defaultTemperature = 0.7
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenRouterClient is an LLMClient backed by OpenRouter's OpenAI-compatible
// chat completions API.
type OpenRouterClient struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewOpenRouterClient builds a client for the given API key and default model.
func NewOpenRouterClient(apiKey, model string, timeout time.Duration, logger *logging.Logger) *OpenRouterClient {
	if apiKey == "" {
		panic("conversation: OpenRouter API key required")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL

	return newOpenRouterClient(openai.NewClientWithConfig(cfg), model, timeout, logger)
}

func newOpenRouterClient(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *OpenRouterClient {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenRouterClient{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

var _ LLMClient = (*OpenRouterClient)(nil)

// Complete issues exactly one chat completion request, bounded by the client
// timeout. Failures are surfaced, not hidden.
func (c *OpenRouterClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(req.Messages) == 0 {
		return LLMResponse{}, errors.New("conversation: at least one message required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   int(maxTokens),
		Temperature: temperature,
	})
	if err != nil {
		c.logger.Error("model completion failed", "error", err, "model", model)
		return LLMResponse{}, fmt.Errorf("conversation: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: completion returned no choices")
	}

	c.logger.Debug("model completion ok",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens,
	)

	return LLMResponse{
		Text: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
		StopReason: string(resp.Choices[0].FinishReason),
	}, nil
}
