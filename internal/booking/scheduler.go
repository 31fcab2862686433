// Package booking abstracts the appointment scheduling backend. The
// dispatcher treats any scheduler failure as an immediate escalation, never a
// synchronous retry.
package booking

import (
	"context"
	"errors"
	"time"
)

// ErrNoSlotAvailable is returned when the scheduling backend has no open slot
// in the booking window.
var ErrNoSlotAvailable = errors.New("booking: no slot available")

// ErrNotConfigured is returned by the disabled scheduler.
var ErrNotConfigured = errors.New("booking: scheduler not configured")

// Request carries the contact details the backend needs to book a slot.
type Request struct {
	Name  string
	Email string
	Phone string
}

// Confirmation is a successfully reserved slot.
type Confirmation struct {
	Time time.Time
	// SchedulingURL points the customer at the provider's confirmation page
	// when the backend requires them to finalize there.
	SchedulingURL string
}

// Scheduler books an estimate appointment for a qualified lead.
type Scheduler interface {
	BookSlot(ctx context.Context, req Request) (*Confirmation, error)
}

// Disabled is a Scheduler used when no backend is configured; every booking
// attempt escalates to a human.
type Disabled struct{}

// NewDisabled returns the always-failing scheduler.
func NewDisabled() *Disabled {
	return &Disabled{}
}

// BookSlot always reports the scheduler as unconfigured.
func (d *Disabled) BookSlot(ctx context.Context, req Request) (*Confirmation, error) {
	return nil, ErrNotConfigured
}

// Stub returns a fixed slot, used in development and tests.
type Stub struct {
	Slot time.Time
	Err  error
}

// BookSlot returns the configured slot or error.
func (s *Stub) BookSlot(ctx context.Context, req Request) (*Confirmation, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &Confirmation{Time: s.Slot}, nil
}
