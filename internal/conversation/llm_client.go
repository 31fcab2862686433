package conversation

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ErrGatewayUnavailable indicates the model backend failed or timed out. The
// engine never papers over it with a fabricated reply; dispatch turns it into
// a fixed escalation message.
var ErrGatewayUnavailable = errors.New("conversation: model gateway unavailable")

// ChatMessage is a single turn in the shape the model backend expects.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient turns a conversation transcript into a single completion. One
// attempt per call; retries are the caller's decision (and the engine makes
// none).
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// UnavailableClient is used when no model backend is configured. Every call
// fails, which routes all inbound traffic to the human escalation path.
type UnavailableClient struct{}

// NewUnavailableClient returns the always-failing client.
func NewUnavailableClient() *UnavailableClient {
	return &UnavailableClient{}
}

// Complete always reports the gateway as unavailable.
func (c *UnavailableClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	return LLMResponse{}, ErrGatewayUnavailable
}
