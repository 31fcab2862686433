package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/internal/observability/metrics"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// customerTurnPrefix frames inbound text for the model. The prefixed form is
// what gets persisted, so the stored transcript always matches what the model
// saw on the previous turn.
const customerTurnPrefix = "Customer response: "

// Engine owns per-lead transcript state. For each inbound message it appends
// the customer turn, invokes the model gateway, records the raw completion,
// and classifies it into a Decision. It holds exactly one authoritative
// transcript per lead under concurrent inbound events.
type Engine struct {
	repo       leads.Repository
	transcript TranscriptStore
	llm        LLMClient
	locks      *keyedMutex
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
}

// NewEngine wires the conversation engine.
func NewEngine(repo leads.Repository, transcript TranscriptStore, llm LLMClient, m *metrics.ConversationMetrics, logger *logging.Logger) *Engine {
	if repo == nil {
		panic("conversation: leads repository required")
	}
	if transcript == nil {
		panic("conversation: transcript store required")
	}
	if llm == nil {
		panic("conversation: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		repo:       repo,
		transcript: transcript,
		llm:        llm,
		locks:      newKeyedMutex(),
		metrics:    m,
		logger:     logger,
	}
}

// InitialMessage renders the deterministic first-contact text. No model call
// happens on first contact; the model joins once the customer replies.
func (e *Engine) InitialMessage(lead *leads.Lead) string {
	return FormatInitialMessage(lead.FirstName())
}

// HandleInbound processes one customer message and returns the Decision for
// it. Calls for the same lead are serialized; each call appends to the
// transcript and may invoke the model, so delivery must be at-most-once per
// inbound message.
func (e *Engine) HandleInbound(ctx context.Context, leadID, customerText string) (*Decision, error) {
	lock := e.locks.forKey(leadID)
	lock.Lock()
	defer lock.Unlock()

	lead, err := e.repo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	turns, err := e.transcript.Load(ctx, leadID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if len(turns) == 0 {
		turns = append(turns, Turn{
			Role:      ChatRoleSystem,
			Content:   SystemPrompt,
			Timestamp: now,
		})
	}
	turns = append(turns, Turn{
		Role:      ChatRoleUser,
		Content:   customerTurnPrefix + customerText,
		Timestamp: now,
	})

	start := time.Now()
	resp, err := e.llm.Complete(ctx, LLMRequest{Messages: toChatMessages(turns)})
	e.metrics.ObserveModelLatency(time.Since(start).Seconds())
	if err != nil {
		e.metrics.ObserveGatewayFailure()
		e.logger.Error("model gateway failed", "error", err, "lead_id", leadID)
		// Keep the customer turn for the audit trail even though no reply was
		// generated.
		if saveErr := e.transcript.Save(ctx, leadID, turns); saveErr != nil {
			e.logger.Error("failed to save transcript after gateway failure", "error", saveErr, "lead_id", leadID)
		}
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	// The raw completion, markers included, goes into the transcript before
	// classification so the next model call sees its own prior output
	// unaltered.
	turns = append(turns, Turn{
		Role:      ChatRoleAssistant,
		Content:   resp.Text,
		Timestamp: time.Now().UTC(),
	})
	if err := e.transcript.Save(ctx, leadID, turns); err != nil {
		return nil, err
	}

	decision := Classify(resp.Text)
	decision.Qualification = ExtractQualification(lead, turns)
	e.metrics.ObserveDecision(string(decision.Action))

	e.logger.Info("inbound message classified",
		"lead_id", leadID,
		"action", decision.Action,
		"service_type", decision.Qualification.ServiceType,
		"urgency", decision.Qualification.Urgency,
	)

	return &decision, nil
}

// Transcript exposes the stored transcript for a lead, used by the dashboard
// and tests.
func (e *Engine) Transcript(ctx context.Context, leadID string) ([]Turn, error) {
	return e.transcript.Load(ctx, leadID)
}

func toChatMessages(turns []Turn) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, ChatMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}
