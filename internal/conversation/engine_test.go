package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekickhq/leadline/internal/leads"
)

// scriptedLLM returns canned completions and records every request it saw.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []LLMRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	reply := "ok"
	if len(s.replies) > 0 {
		reply = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	return LLMResponse{Text: reply}, nil
}

func newTestEngine(t *testing.T, llm LLMClient) (*Engine, *leads.Lead) {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), &leads.CreateLeadRequest{
		Name:  "Jordan Miller",
		Phone: "2485551234",
	})
	require.NoError(t, err)
	return NewEngine(repo, NewMemoryTranscriptStore(), llm, nil, nil), lead
}

func TestHandleInboundSeedsSystemTurnOnce(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"What kind of system do you have?"}}
	engine, lead := newTestEngine(t, llm)
	ctx := context.Background()

	_, err := engine.HandleInbound(ctx, lead.ID, "my furnace died")
	require.NoError(t, err)
	_, err = engine.HandleInbound(ctx, lead.ID, "it's a Carrier")
	require.NoError(t, err)

	turns, err := engine.Transcript(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, turns, 5)

	assert.Equal(t, ChatRoleSystem, turns[0].Role)
	assert.Equal(t, SystemPrompt, turns[0].Content)
	for _, turn := range turns[1:] {
		assert.NotEqual(t, ChatRoleSystem, turn.Role)
	}
}

func TestHandleInboundPrefixesCustomerTurn(t *testing.T) {
	llm := &scriptedLLM{}
	engine, lead := newTestEngine(t, llm)

	_, err := engine.HandleInbound(context.Background(), lead.ID, "my furnace died")
	require.NoError(t, err)

	require.Len(t, llm.requests, 1)
	msgs := llm.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, ChatRoleUser, msgs[1].Role)
	assert.Equal(t, "Customer response: my furnace died", msgs[1].Content)
}

func TestHandleInboundStoresRawCompletion(t *testing.T) {
	raw := "[BOOK] Great! Let me get you on the schedule."
	llm := &scriptedLLM{replies: []string{raw}}
	engine, lead := newTestEngine(t, llm)
	ctx := context.Background()

	decision, err := engine.HandleInbound(ctx, lead.ID, "tuesday works for me")
	require.NoError(t, err)
	assert.Equal(t, ActionBook, decision.Action)
	assert.NotContains(t, decision.Message, "[BOOK]")

	// Markers stay in the transcript so the model sees its own prior output.
	turns, err := engine.Transcript(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, ChatRoleAssistant, turns[2].Role)
	assert.Equal(t, raw, turns[2].Content)
}

func TestHandleInboundGatewayFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection refused")}
	engine, lead := newTestEngine(t, llm)
	ctx := context.Background()

	decision, err := engine.HandleInbound(ctx, lead.ID, "my furnace died")
	require.Error(t, err)
	assert.Nil(t, decision)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	// The customer turn is preserved even though no reply was generated.
	turns, loadErr := engine.Transcript(ctx, lead.ID)
	require.NoError(t, loadErr)
	require.Len(t, turns, 2)
	assert.Equal(t, ChatRoleUser, turns[1].Role)
}

func TestHandleInboundUnknownLead(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedLLM{})

	_, err := engine.HandleInbound(context.Background(), "no-such-lead", "hello")
	assert.ErrorIs(t, err, leads.ErrLeadNotFound)
}

func TestHandleInboundSerializesPerLead(t *testing.T) {
	llm := &scriptedLLM{}
	engine, lead := newTestEngine(t, llm)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.HandleInbound(ctx, lead.ID, fmt.Sprintf("message %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns, err := engine.Transcript(ctx, lead.ID)
	require.NoError(t, err)

	// One system turn, then a strict user/assistant alternation. Interleaved
	// handling would produce consecutive user turns or a short transcript.
	require.Len(t, turns, 1+2*n)
	assert.Equal(t, ChatRoleSystem, turns[0].Role)
	for i := 1; i < len(turns); i++ {
		want := ChatRoleUser
		if i%2 == 0 {
			want = ChatRoleAssistant
		}
		assert.Equalf(t, want, turns[i].Role, "turn %d out of order", i)
	}

	seen := make(map[string]bool)
	for _, turn := range turns[1:] {
		if turn.Role == ChatRoleUser {
			msg := strings.TrimPrefix(turn.Content, customerTurnPrefix)
			assert.False(t, seen[msg], "duplicate customer turn %q", msg)
			seen[msg] = true
		}
	}
	assert.Len(t, seen, n)
}

func TestInitialMessage(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedLLM{})

	named := &leads.Lead{Name: "Jordan Miller"}
	assert.Contains(t, engine.InitialMessage(named), "Hi Jordan!")

	anonymous := &leads.Lead{}
	assert.Contains(t, engine.InitialMessage(anonymous), "Hi there!")

	// Deterministic: no model involved, same output every time.
	assert.Equal(t, engine.InitialMessage(named), engine.InitialMessage(named))
}
