package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	// Create stores a new lead. If an active (non-terminal) lead already exists
	// for the same phone number, that lead is updated and returned instead of
	// forking a duplicate.
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	// GetByPhone returns the most recent lead for a canonical phone number, or
	// ErrUnknownContact when the number has never been seen.
	GetByPhone(ctx context.Context, phone string) (*Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetAppointment(ctx context.Context, id string, at time.Time) error
	SetLastMessage(ctx context.Context, id string, body string) error
	List(ctx context.Context) ([]*Lead, error)
}

// InMemoryRepository is a Repository backed by process memory, used in
// development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	leads   map[string]*Lead
	byPhone map[string]string // canonical phone -> latest lead id
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:   make(map[string]*Lead),
		byPhone: make(map[string]string),
	}
}

// Create creates a new lead, reusing any active lead with the same phone.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := r.byPhone[req.Phone]; ok {
		if existing := r.leads[id]; existing != nil && !existing.Status.Terminal() {
			if req.Name != "" {
				existing.Name = req.Name
			}
			if req.Email != "" {
				existing.Email = req.Email
			}
			if req.RequestedService != "" {
				existing.RequestedService = req.RequestedService
			}
			existing.UpdatedAt = now
			return clone(existing), nil
		}
	}

	lead := &Lead{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		RequestedService: req.RequestedService,
		Source:           req.Source,
		Status:           StatusNew,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.leads[lead.ID] = lead
	r.byPhone[lead.Phone] = lead.ID

	return clone(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return clone(lead), nil
}

// GetByPhone retrieves the latest lead for a canonical phone number.
func (r *InMemoryRepository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[NormalizeE164(phone)]
	if !ok {
		return nil, ErrUnknownContact
	}
	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrUnknownContact
	}
	return clone(lead), nil
}

// UpdateStatus moves the lead to the given status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	return nil
}

// SetAppointment records the confirmed appointment time.
func (r *InMemoryRepository) SetAppointment(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	t := at
	lead.AppointmentTime = &t
	lead.UpdatedAt = time.Now().UTC()
	return nil
}

// SetLastMessage records the latest outbound message body for the dashboard.
func (r *InMemoryRepository) SetLastMessage(ctx context.Context, id string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.LastMessage = body
	lead.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns all leads, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, clone(lead))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clone(l *Lead) *Lead {
	c := *l
	if l.AppointmentTime != nil {
		t := *l.AppointmentTime
		c.AppointmentTime = &t
	}
	return &c
}
