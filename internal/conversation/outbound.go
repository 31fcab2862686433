package conversation

import "context"

// OutboundReply is one customer-facing message to deliver.
type OutboundReply struct {
	To       string
	From     string
	Body     string
	Metadata map[string]string
}

// ReplyMessenger delivers outbound messages. Implementations live in the
// messaging package; tests use in-memory fakes.
type ReplyMessenger interface {
	SendReply(ctx context.Context, msg OutboundReply) error
}
