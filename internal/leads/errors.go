package leads

import "errors"

var (
	// ErrInvalidPhone is returned when the phone number is missing or malformed
	ErrInvalidPhone = errors.New("leads: valid phone number is required")

	// ErrLeadNotFound is returned when a lead is not found by id
	ErrLeadNotFound = errors.New("leads: lead not found")

	// ErrUnknownContact is returned when an inbound message has no matching lead.
	// Callers send a generic fallback instead of creating a lead implicitly.
	ErrUnknownContact = errors.New("leads: no lead for phone number")
)
