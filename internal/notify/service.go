// Package notify alerts human operators when the automated flow hands a lead
// off.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// SMSSender sends SMS messages to operators.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Config names the operator contact points and the company identity used in
// notification copy.
type Config struct {
	CompanyName   string
	OperatorEmail string
	OperatorPhone string
}

// Service fans escalation alerts out to the configured operator channels.
// Channels are best-effort and independent; one failing does not stop the
// others.
type Service struct {
	email  EmailSender
	sms    SMSSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, sms SMSSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Leadline"
	}
	return &Service{
		email:  email,
		sms:    sms,
		cfg:    cfg,
		logger: logger,
	}
}

// NotifyEscalation alerts the on-call operator that a lead needs a human. The
// returned error aggregates channel failures; callers treat it as advisory.
func (s *Service) NotifyEscalation(ctx context.Context, lead *leads.Lead, reason string) error {
	name := "Unknown contact"
	phone := ""
	service := ""
	lastMessage := ""
	if lead != nil {
		if lead.Name != "" {
			name = lead.Name
		}
		phone = lead.Phone
		service = lead.RequestedService
		lastMessage = lead.LastMessage
	}

	var errs []error

	if s.email != nil && s.cfg.OperatorEmail != "" {
		subject := fmt.Sprintf("🚨 Lead escalated - %s", name)
		body := fmt.Sprintf(`A lead needs a human follow-up.

Name: %s
Phone: %s%s
Reason: %s
Escalated: %s%s

Please call them within 30 minutes; the customer has been told to expect it.

— %s AI`,
			name, phone, formatServiceLine(service), reason,
			time.Now().Format("January 2, 2006 at 3:04 PM"),
			formatLastMessageLine(lastMessage), s.cfg.CompanyName)

		msg := EmailMessage{
			To:      s.cfg.OperatorEmail,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: escalation email failed", "error", err, "to", s.cfg.OperatorEmail)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: escalation email sent", "to", s.cfg.OperatorEmail, "reason", reason)
		}
	}

	if s.sms != nil && s.cfg.OperatorPhone != "" {
		smsBody := fmt.Sprintf("🚨 Escalation: %s (%s). %s. Call within 30 min.", name, phone, reason)
		if err := s.sms.SendSMS(ctx, s.cfg.OperatorPhone, smsBody); err != nil {
			s.logger.Error("notify: escalation SMS failed", "error", err, "to", s.cfg.OperatorPhone)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: escalation SMS sent", "to", s.cfg.OperatorPhone, "reason", reason)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

func formatServiceLine(service string) string {
	if service == "" {
		return ""
	}
	return fmt.Sprintf("\nRequested service: %s", service)
}

func formatLastMessageLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	return fmt.Sprintf("\nLast message sent: %s", truncate(msg, 200))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// StubSMSSender is a no-op sender for testing.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

var _ SMSSender = (*StubSMSSender)(nil)
