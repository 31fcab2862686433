package messaging

import (
	"context"

	"github.com/sidekickhq/leadline/internal/conversation"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// LogSender writes outbound messages to the log instead of delivering them.
// Used in development when Twilio credentials are absent.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

var _ conversation.ReplyMessenger = (*LogSender)(nil)

// SendReply logs the message and reports success.
func (s *LogSender) SendReply(ctx context.Context, msg conversation.OutboundReply) error {
	s.logger.Info("outbound sms (log only)", "to", msg.To, "from", msg.From, "body", msg.Body)
	return nil
}

// SendSMS logs a free-form text.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	return s.SendReply(ctx, conversation.OutboundReply{To: to, Body: body})
}
