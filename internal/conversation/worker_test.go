package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekickhq/leadline/internal/booking"
	"github.com/sidekickhq/leadline/internal/leads"
)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []OutboundReply
	err  error
}

func (f *fakeMessenger) SendReply(ctx context.Context, msg OutboundReply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMessenger) last(t *testing.T) OutboundReply {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type workerFixture struct {
	worker    *Worker
	repo      leads.Repository
	messenger *fakeMessenger
	queue     *MemoryQueue
}

func newWorkerFixture(t *testing.T, llm LLMClient, scheduler booking.Scheduler) *workerFixture {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	messenger := &fakeMessenger{}
	queue := NewMemoryQueue(16)

	engine := NewEngine(repo, NewMemoryTranscriptStore(), llm, nil, nil)
	dispatcher := NewDispatcher(repo, scheduler, &recordingNotifier{}, nil, time.Second, nil)
	worker := NewWorker(engine, dispatcher, repo, messenger, queue, nil, nil,
		WithCompanyPhone("(248) 555-0100"),
		WithFromNumber("+12485550199"),
	)

	return &workerFixture{worker: worker, repo: repo, messenger: messenger, queue: queue}
}

func enqueue(t *testing.T, payload queuePayload) queueMessage {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return queueMessage{ID: "m1", Body: string(body)}
}

func TestWorkerProcessesOutreach(t *testing.T) {
	fx := newWorkerFixture(t, &scriptedLLM{}, nil)
	ctx := context.Background()

	lead, err := fx.repo.Create(ctx, &leads.CreateLeadRequest{Name: "Jordan Miller", Phone: "2485551234"})
	require.NoError(t, err)

	fx.worker.handleMessage(ctx, enqueue(t, queuePayload{Kind: jobTypeOutreach, LeadID: lead.ID}))

	sent := fx.messenger.last(t)
	assert.Equal(t, lead.Phone, sent.To)
	assert.Equal(t, "+12485550199", sent.From)
	assert.Contains(t, sent.Body, "Hi Jordan!")

	stored, err := fx.repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, leads.StatusContacted, stored.Status)
	assert.Equal(t, sent.Body, stored.LastMessage)
}

func TestWorkerInboundFullFlow(t *testing.T) {
	slot := time.Date(2026, time.September, 3, 14, 0, 0, 0, time.UTC)
	llm := &scriptedLLM{replies: []string{"[BOOK] Great! Let me get you on the schedule."}}
	fx := newWorkerFixture(t, llm, &booking.Stub{Slot: slot})
	ctx := context.Background()

	lead, err := fx.repo.Create(ctx, &leads.CreateLeadRequest{Name: "Jordan Miller", Phone: "2485551234"})
	require.NoError(t, err)

	fx.worker.handleMessage(ctx, enqueue(t, queuePayload{
		Kind: jobTypeInbound,
		From: "248-555-1234",
		Body: "tuesday works",
	}))

	sent := fx.messenger.last(t)
	assert.Equal(t, lead.Phone, sent.To)
	assert.Contains(t, sent.Body, "2026-09-03T14:00:00Z")

	stored, err := fx.repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, leads.StatusBooked, stored.Status)
}

func TestWorkerInboundGatewayFailureStillReplies(t *testing.T) {
	llm := &scriptedLLM{err: context.DeadlineExceeded}
	fx := newWorkerFixture(t, llm, nil)
	ctx := context.Background()

	lead, err := fx.repo.Create(ctx, &leads.CreateLeadRequest{Phone: "2485551234"})
	require.NoError(t, err)

	fx.worker.handleMessage(ctx, enqueue(t, queuePayload{
		Kind: jobTypeInbound,
		From: lead.Phone,
		Body: "hello?",
	}))

	// Wrapped as a gateway error by the engine, so the customer hears the
	// fixed callback promise, not the raw failure.
	sent := fx.messenger.last(t)
	assert.Equal(t, gatewayDownMessage, sent.Body)

	stored, err := fx.repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, leads.StatusEscalated, stored.Status)
}

func TestWorkerUnknownContact(t *testing.T) {
	fx := newWorkerFixture(t, &scriptedLLM{}, nil)
	ctx := context.Background()

	fx.worker.handleMessage(ctx, enqueue(t, queuePayload{
		Kind: jobTypeInbound,
		From: "+19998887777",
		Body: "is this the hvac place",
	}))

	sent := fx.messenger.last(t)
	assert.Equal(t, "+19998887777", sent.To)
	assert.Contains(t, sent.Body, "(248) 555-0100")

	// No lead record gets created for an unrecognized number.
	all, err := fx.repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWorkerIgnoresMalformedJob(t *testing.T) {
	fx := newWorkerFixture(t, &scriptedLLM{}, nil)

	fx.worker.handleMessage(context.Background(), queueMessage{ID: "m1", Body: "{not json"})

	fx.messenger.mu.Lock()
	defer fx.messenger.mu.Unlock()
	assert.Empty(t, fx.messenger.sent)
}

func TestWorkerConsumesFromQueue(t *testing.T) {
	fx := newWorkerFixture(t, &scriptedLLM{replies: []string{"Got it. What's the issue?"}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lead, err := fx.repo.Create(ctx, &leads.CreateLeadRequest{Phone: "2485551234"})
	require.NoError(t, err)

	publisher := NewPublisher(fx.queue, nil)
	require.NoError(t, publisher.EnqueueInbound(ctx, lead.Phone, "furnace is dead"))

	fx.worker.Start(ctx)

	require.Eventually(t, func() bool {
		fx.messenger.mu.Lock()
		defer fx.messenger.mu.Unlock()
		return len(fx.messenger.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	fx.worker.Wait()

	stored, err := fx.repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, leads.StatusContinuing, stored.Status)
}
