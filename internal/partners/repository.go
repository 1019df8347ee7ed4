package partners

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository persists partners with database/sql so the admin surface can
// share a plain *sql.DB connection.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const partnerColumns = "id, company_name, contact_name, contact_email, contact_phone, territories, status, notes, created_at, updated_at"

// Create registers a partner in the pending state.
func (r *Repository) Create(ctx context.Context, req CreatePartnerRequest) (*Partner, error) {
	now := time.Now().UTC()
	p := &Partner{
		ID:           uuid.NewString(),
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Territories:  req.Territories,
		Status:       StatusPending,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Territories == nil {
		p.Territories = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partners (id, company_name, contact_name, contact_email, contact_phone,
		    territories, status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)`,
		p.ID, p.CompanyName, p.ContactName, p.ContactEmail, p.ContactPhone,
		pq.Array(p.Territories), string(p.Status), p.Notes, now)
	if err != nil {
		return nil, fmt.Errorf("partners: insert failed: %w", err)
	}

	if err := r.AddEvent(ctx, &Event{PartnerID: p.ID, Event: "registered", Detail: req.CompanyName}); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every partner, newest-first, without timelines.
func (r *Repository) List(ctx context.Context) ([]*Partner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+partnerColumns+`
		FROM partners ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("partners: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one partner with its review timeline, or ErrPartnerNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Partner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+partnerColumns+`
		FROM partners WHERE id = $1`, id)
	p, err := scanPartner(row)
	if err == sql.ErrNoRows {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}

	events, err := r.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Timeline = events
	return p, nil
}

// SetStatus moves the partner through the review state machine and records a
// timeline event.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status, detail string) (*Partner, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, status)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE partners SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, string(status), now, string(p.Status))
	if err != nil {
		return nil, fmt.Errorf("partners: set status failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost a race with another transition.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, status)
	}

	if err := r.AddEvent(ctx, &Event{PartnerID: id, Event: "status_" + string(status), Detail: detail}); err != nil {
		return nil, err
	}

	p.Status = status
	p.UpdatedAt = now
	return p, nil
}

// AddEvent appends a timeline entry.
func (r *Repository) AddEvent(ctx context.Context, e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO partner_events (partner_id, event, detail, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		e.PartnerID, e.Event, e.Detail, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("partners: add event failed: %w", err)
	}
	return nil
}

// ListEvents returns the partner's timeline, newest-first.
func (r *Repository) ListEvents(ctx context.Context, partnerID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partner_id, event, detail, created_at
		FROM partner_events WHERE partner_id = $1
		ORDER BY created_at DESC, id DESC`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("partners: list events failed: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.PartnerID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("partners: scan event failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartner(row rowScanner) (*Partner, error) {
	var p Partner
	var status string
	if err := row.Scan(
		&p.ID,
		&p.CompanyName,
		&p.ContactName,
		&p.ContactEmail,
		&p.ContactPhone,
		pq.Array(&p.Territories),
		&status,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if p.Territories == nil {
		p.Territories = []string{}
	}
	return &p, nil
}
