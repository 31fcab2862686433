package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool used by the repository, narrowed so
// tests can substitute pgxmock.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, name, phone, email, requested_service, source, status, appointment_time, last_message, created_at, updated_at`

// Create inserts a new row, reusing any active lead with the same phone.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.activeByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, ErrUnknownContact) {
		return nil, err
	}
	if existing != nil {
		return r.refresh(ctx, existing.ID, req)
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, name, phone, email, requested_service, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Name,
		req.Phone,
		req.Email,
		req.RequestedService,
		req.Source,
		string(StatusNew),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:               id.String(),
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		RequestedService: req.RequestedService,
		Source:           req.Source,
		Status:           StatusNew,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func (r *PostgresRepository) refresh(ctx context.Context, id string, req *CreateLeadRequest) (*Lead, error) {
	query := `
		UPDATE leads
		SET name = COALESCE(NULLIF($2, ''), name),
		    email = COALESCE(NULLIF($3, ''), email),
		    requested_service = COALESCE(NULLIF($4, ''), requested_service),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + leadColumns
	row := r.pool.QueryRow(ctx, query, id, req.Name, req.Email, req.RequestedService)
	return scanLead(row)
}

// GetByID fetches a lead by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// GetByPhone fetches the most recent lead for a canonical phone number.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1 ORDER BY created_at DESC LIMIT 1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, NormalizeE164(phone)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownContact
		}
		return nil, err
	}
	return lead, nil
}

func (r *PostgresRepository) activeByPhone(ctx context.Context, phone string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1 AND status NOT IN ('booked', 'escalated') ORDER BY created_at DESC LIMIT 1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownContact
		}
		return nil, err
	}
	return lead, nil
}

// UpdateStatus moves the lead to the given status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("leads: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// SetAppointment records the confirmed appointment time.
func (r *PostgresRepository) SetAppointment(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leads SET appointment_time = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("leads: set appointment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// SetLastMessage records the latest outbound message body.
func (r *PostgresRepository) SetLastMessage(ctx context.Context, id string, body string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leads SET last_message = $2, updated_at = now() WHERE id = $1`, id, body)
	if err != nil {
		return fmt.Errorf("leads: set last message failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// List returns all leads, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead   Lead
		status string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.RequestedService,
		&lead.Source,
		&status,
		&lead.AppointmentTime,
		&lead.LastMessage,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	return &lead, nil
}
