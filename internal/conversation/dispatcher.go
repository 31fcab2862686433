package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sidekickhq/leadline/internal/booking"
	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/internal/observability/metrics"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// Fixed customer-facing fallbacks. Backend failures are never surfaced raw;
// the customer always hears a person is coming.
const (
	gatewayDownMessage = "I'm having trouble processing that. Let me connect you with someone who can help right away. Expect a call within 30 minutes."

	bookingFailedMessage = "I'm having trouble accessing the calendar. Let me connect you with someone who can help. Expect a call within 30 minutes."

	escalationFallbackMessage = "Let me connect you with our on-call team right away."

	bookingConfirmedTemplate = "Perfect! I've booked your estimate for %s. You'll receive a confirmation email shortly. See you then!"
)

// OperatorNotifier alerts a human that a lead needs attention. Best-effort:
// its failure never blocks the customer-facing reply.
type OperatorNotifier interface {
	NotifyEscalation(ctx context.Context, lead *leads.Lead, reason string) error
}

// Dispatcher executes the side effect a Decision calls for and composes the
// outbound text. It decides nothing itself; the Decision is authoritative.
type Dispatcher struct {
	repo           leads.Repository
	scheduler      booking.Scheduler
	notifier       OperatorNotifier
	metrics        *metrics.ConversationMetrics
	logger         *logging.Logger
	bookingTimeout time.Duration
}

// NewDispatcher wires the action dispatcher.
func NewDispatcher(repo leads.Repository, scheduler booking.Scheduler, notifier OperatorNotifier, m *metrics.ConversationMetrics, bookingTimeout time.Duration, logger *logging.Logger) *Dispatcher {
	if repo == nil {
		panic("conversation: leads repository required")
	}
	if scheduler == nil {
		scheduler = booking.NewDisabled()
	}
	if bookingTimeout <= 0 {
		bookingTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		repo:           repo,
		scheduler:      scheduler,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		bookingTimeout: bookingTimeout,
	}
}

// Dispatch runs the Decision's side effect, updates the lead status, and
// returns the outbound text. It always returns something to send.
func (d *Dispatcher) Dispatch(ctx context.Context, lead *leads.Lead, decision Decision) string {
	switch decision.Action {
	case ActionBook:
		return d.book(ctx, lead)
	case ActionEscalate:
		return d.escalate(ctx, lead, decision.Message, "model requested escalation")
	default:
		d.setStatus(ctx, lead, leads.StatusContinuing)
		return decision.Message
	}
}

// DispatchFailure maps an engine error into the customer-facing fail-safe:
// escalate with the fixed callback promise.
func (d *Dispatcher) DispatchFailure(ctx context.Context, lead *leads.Lead, err error) string {
	reason := "conversation engine failure"
	if errors.Is(err, ErrGatewayUnavailable) {
		reason = "model gateway unavailable"
	}
	return d.escalate(ctx, lead, gatewayDownMessage, reason)
}

func (d *Dispatcher) book(ctx context.Context, lead *leads.Lead) string {
	bookCtx, cancel := context.WithTimeout(ctx, d.bookingTimeout)
	defer cancel()

	confirmation, err := d.scheduler.BookSlot(bookCtx, booking.Request{
		Name:  lead.Name,
		Email: lead.Email,
		Phone: lead.Phone,
	})
	if err != nil || confirmation == nil {
		d.metrics.ObserveBooking("failed")
		d.logger.Error("booking failed, escalating", "error", err, "lead_id", lead.ID)
		return d.escalate(ctx, lead, bookingFailedMessage, "booking backend failure")
	}

	d.setStatus(ctx, lead, leads.StatusBooked)
	if err := d.repo.SetAppointment(ctx, lead.ID, confirmation.Time); err != nil {
		d.logger.Error("failed to record appointment", "error", err, "lead_id", lead.ID)
	}
	d.metrics.ObserveBooking("booked")
	d.logger.Info("appointment booked", "lead_id", lead.ID, "time", confirmation.Time)

	return formatBookingConfirmation(confirmation.Time)
}

func (d *Dispatcher) escalate(ctx context.Context, lead *leads.Lead, message, reason string) string {
	if message == "" {
		message = escalationFallbackMessage
	}
	d.setStatus(ctx, lead, leads.StatusEscalated)

	// Operator notification and customer delivery are independent failure
	// domains; a notify error must not stop the reply.
	if d.notifier != nil {
		if err := d.notifier.NotifyEscalation(ctx, lead, reason); err != nil {
			d.logger.Error("operator notification failed", "error", err, "lead_id", lead.ID, "reason", reason)
		}
	}
	d.metrics.ObserveEscalation(reason)

	return message
}

func formatBookingConfirmation(t time.Time) string {
	return fmt.Sprintf(bookingConfirmedTemplate, t.Format(time.RFC3339))
}

func (d *Dispatcher) setStatus(ctx context.Context, lead *leads.Lead, status leads.Status) {
	if err := d.repo.UpdateStatus(ctx, lead.ID, status); err != nil {
		d.logger.Error("failed to update lead status", "error", err, "lead_id", lead.ID, "status", status)
		return
	}
	lead.Status = status
}
