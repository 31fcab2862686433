package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	requests []openai.ChatCompletionRequest
	response openai.ChatCompletionResponse
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return f.response, nil
}

func TestOpenRouterClientComplete(t *testing.T) {
	fake := &fakeChatClient{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: "[BOOK] Great! Let me get you on the schedule."},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 120, CompletionTokens: 18, TotalTokens: 138},
		},
	}
	client := newOpenRouterClient(fake, "anthropic/claude-3.5-sonnet", time.Second, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{
			{Role: ChatRoleSystem, Content: "system"},
			{Role: ChatRoleUser, Content: "Customer response: tuesday works"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "[BOOK] Great! Let me get you on the schedule.", resp.Text)
	assert.Equal(t, int32(138), resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.StopReason)

	require.Len(t, fake.requests, 1)
	sent := fake.requests[0]
	assert.Equal(t, "anthropic/claude-3.5-sonnet", sent.Model)
	assert.Equal(t, defaultMaxTokens, sent.MaxTokens)
	assert.InDelta(t, defaultTemperature, sent.Temperature, 0.001)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, ChatRoleUser, sent.Messages[1].Role)
}

func TestOpenRouterClientSingleAttempt(t *testing.T) {
	fake := &fakeChatClient{err: errors.New("status 502")}
	client := newOpenRouterClient(fake, "", time.Second, nil)

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	// One inbound message means at most one completion request, even on
	// failure.
	assert.Len(t, fake.requests, 1)
}

func TestOpenRouterClientRequiresMessages(t *testing.T) {
	client := newOpenRouterClient(&fakeChatClient{}, "", time.Second, nil)

	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)
}

func TestOpenRouterClientRequestOverrides(t *testing.T) {
	fake := &fakeChatClient{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
		},
	}
	client := newOpenRouterClient(fake, "anthropic/claude-3.5-sonnet", time.Second, nil)

	_, err := client.Complete(context.Background(), LLMRequest{
		Model:       "openai/gpt-4o-mini",
		MaxTokens:   64,
		Temperature: 0.2,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	sent := fake.requests[0]
	assert.Equal(t, "openai/gpt-4o-mini", sent.Model)
	assert.Equal(t, 64, sent.MaxTokens)
	assert.InDelta(t, 0.2, sent.Temperature, 0.001)
}

func TestUnavailableClient(t *testing.T) {
	client := &UnavailableClient{}

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
