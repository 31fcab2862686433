package leads

import (
	"strings"
	"time"
)

// Status tracks where a lead sits in the qualification flow.
type Status string

const (
	StatusNew        Status = "new"
	StatusContacted  Status = "contacted"
	StatusContinuing Status = "continuing"
	StatusBooked     Status = "booked"
	StatusEscalated  Status = "escalated"
)

// Terminal reports whether the automated flow is finished for this status.
// A human may still intervene afterwards.
func (s Status) Terminal() bool {
	return s == StatusBooked || s == StatusEscalated
}

// Lead represents a prospective customer moving through qualification.
type Lead struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	RequestedService string     `json:"requested_service"`
	Source           string     `json:"source"`
	Status           Status     `json:"status"`
	AppointmentTime  *time.Time `json:"appointment_time,omitempty"`
	LastMessage      string     `json:"last_message"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FirstName returns the leading word of the lead's name, used in outreach templates.
func (l *Lead) FirstName() string {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ""
	}
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		return name[:idx]
	}
	return name
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	RequestedService string `json:"requested_service"`
	Source           string `json:"source"`
}

// Validate checks required fields and canonicalizes the phone number in place.
func (r *CreateLeadRequest) Validate() error {
	phone := NormalizeE164(r.Phone)
	if phone == "" {
		return ErrInvalidPhone
	}
	r.Phone = phone
	if r.Source == "" {
		r.Source = "unknown"
	}
	return nil
}
