package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/internal/observability/metrics"
	"github.com/sidekickhq/leadline/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
	deleteTimeout       = 5 * time.Second
)

// unknownContactTemplate answers numbers with no matching lead. %s is the
// office phone.
const unknownContactTemplate = "Thanks for reaching out! Please call our office at %s for assistance."

// Worker consumes conversation jobs from the queue: initial outreach sends and
// inbound customer messages. Per-lead ordering is enforced by the engine's
// keyed lock, so multiple workers (or instances) are safe.
type Worker struct {
	engine     *Engine
	dispatcher *Dispatcher
	repo       leads.Repository
	messenger  ReplyMessenger
	queue      queueClient
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers         int
	receiveWaitSecs int
	batchSize       int
	companyPhone    string
	fromNumber      string
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.batchSize = size
	}
}

// WithCompanyPhone sets the office number quoted in the unknown-contact reply.
func WithCompanyPhone(phone string) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.companyPhone = phone
	}
}

// WithFromNumber sets the outbound sender number.
func WithFromNumber(from string) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.fromNumber = from
	}
}

// NewWorker wires the queue consumer.
func NewWorker(engine *Engine, dispatcher *Dispatcher, repo leads.Repository, messenger ReplyMessenger, queue queueClient, m *metrics.ConversationMetrics, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if engine == nil {
		panic("conversation: engine required")
	}
	if dispatcher == nil {
		panic("conversation: dispatcher required")
	}
	if repo == nil {
		panic("conversation: leads repository required")
	}
	if messenger == nil {
		panic("conversation: messenger required")
	}
	if queue == nil {
		panic("conversation: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:         defaultWorkerCount,
		receiveWaitSecs: defaultWaitSeconds,
		batchSize:       defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		engine:     engine,
		dispatcher: dispatcher,
		repo:       repo,
		messenger:  messenger,
		queue:      queue,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start launches the consumer goroutines. They exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consumer goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.batchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive conversation jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	defer w.deleteMessage(msg.ReceiptHandle)

	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode conversation job", "error", err)
		return
	}

	switch payload.Kind {
	case jobTypeOutreach:
		w.processOutreach(ctx, payload)
	case jobTypeInbound:
		w.processInbound(ctx, payload)
	default:
		w.logger.Error("unknown conversation job type", "kind", payload.Kind)
	}
}

// processOutreach sends the deterministic first-contact message and marks the
// lead contacted. The lead record already exists; a send failure here leaves
// it in status new for a later retry or manual follow-up.
func (w *Worker) processOutreach(ctx context.Context, payload queuePayload) {
	lead, err := w.repo.GetByID(ctx, payload.LeadID)
	if err != nil {
		w.logger.Error("outreach job references missing lead", "error", err, "lead_id", payload.LeadID)
		return
	}

	body := w.engine.InitialMessage(lead)
	if err := w.send(ctx, lead.Phone, body); err != nil {
		w.logger.Error("initial outreach send failed", "error", err, "lead_id", lead.ID)
		return
	}

	if err := w.repo.UpdateStatus(ctx, lead.ID, leads.StatusContacted); err != nil {
		w.logger.Error("failed to mark lead contacted", "error", err, "lead_id", lead.ID)
	}
	if err := w.repo.SetLastMessage(ctx, lead.ID, body); err != nil {
		w.logger.Error("failed to record last message", "error", err, "lead_id", lead.ID)
	}
	w.logger.Info("initial outreach sent", "lead_id", lead.ID)
}

// processInbound runs the engine and dispatcher for one customer message. The
// customer always gets some reply, short of transport failure.
func (w *Worker) processInbound(ctx context.Context, payload queuePayload) {
	lead, err := w.repo.GetByPhone(ctx, payload.From)
	if errors.Is(err, leads.ErrUnknownContact) {
		w.metrics.ObserveInbound("unknown_contact")
		w.logger.Info("inbound message from unknown number", "from", payload.From)
		if sendErr := w.send(ctx, payload.From, fmt.Sprintf(unknownContactTemplate, w.cfg.companyPhone)); sendErr != nil {
			w.logger.Error("unknown-contact reply send failed", "error", sendErr, "to", payload.From)
		}
		return
	}
	if err != nil {
		w.metrics.ObserveInbound("error")
		w.logger.Error("failed to resolve lead for inbound message", "error", err, "from", payload.From)
		return
	}

	var outbound string
	decision, err := w.engine.HandleInbound(ctx, lead.ID, payload.Body)
	if err != nil {
		outbound = w.dispatcher.DispatchFailure(ctx, lead, err)
	} else {
		outbound = w.dispatcher.Dispatch(ctx, lead, *decision)
	}
	w.metrics.ObserveInbound("processed")

	// The status change is already committed; a send failure is terminal for
	// this message and never rolls it back.
	if err := w.send(ctx, lead.Phone, outbound); err != nil {
		w.metrics.ObserveSendFailure()
		w.logger.Error("outbound reply send failed", "error", err, "lead_id", lead.ID)
		return
	}
	if err := w.repo.SetLastMessage(ctx, lead.ID, outbound); err != nil {
		w.logger.Error("failed to record last message", "error", err, "lead_id", lead.ID)
	}
}

func (w *Worker) send(ctx context.Context, to, body string) error {
	return w.messenger.SendReply(ctx, OutboundReply{
		To:   to,
		From: w.cfg.fromNumber,
		Body: body,
	})
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete conversation job", "error", err)
	}
}
