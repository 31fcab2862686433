package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sidekickhq/leadline/pkg/logging"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Queue is the job transport shared by the publisher and worker pool.
type Queue = queueClient

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobType string

const (
	jobTypeOutreach jobType = "outreach"
	jobTypeInbound  jobType = "inbound_sms"
)

type queuePayload struct {
	ID     string  `json:"id"`
	Kind   jobType `json:"kind"`
	LeadID string  `json:"lead_id,omitempty"`
	From   string  `json:"from,omitempty"`
	Body   string  `json:"body,omitempty"`
}

// Publisher enqueues conversation jobs for the worker pool.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher wraps a queue client.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueOutreach schedules the initial outreach send for a freshly created
// lead. Lead creation already committed; a failed enqueue leaves the lead
// intact.
func (p *Publisher) EnqueueOutreach(ctx context.Context, leadID string) error {
	return p.enqueue(ctx, queuePayload{Kind: jobTypeOutreach, LeadID: leadID})
}

// EnqueueInbound schedules processing of one inbound customer message.
func (p *Publisher) EnqueueInbound(ctx context.Context, from, body string) error {
	return p.enqueue(ctx, queuePayload{Kind: jobTypeInbound, From: from, Body: body})
}

func (p *Publisher) enqueue(ctx context.Context, payload queuePayload) error {
	payload.ID = uuid.NewString()
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("conversation: failed to encode payload: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("conversation: failed to enqueue job: %w", err)
	}
	p.logger.Debug("conversation job enqueued", "job_id", payload.ID, "kind", payload.Kind)
	return nil
}
