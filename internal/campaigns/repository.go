package campaigns

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists campaigns scoped by owning client.
type Repository interface {
	Create(ctx context.Context, clientID string, req CreateCampaignRequest) (*Campaign, error)
	GetByID(ctx context.Context, clientID, id string) (*Campaign, error)
	ListByClient(ctx context.Context, clientID string) ([]*Campaign, error)
	Update(ctx context.Context, clientID, id string, req UpdateCampaignRequest) (*Campaign, error)
	SetStatus(ctx context.Context, clientID, id string, status Status) (*Campaign, error)
}

// PgxPool is the pool subset used by PostgresRepository; pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores campaigns in the relational database.
type PostgresRepository struct {
	db PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("campaigns: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db PgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const campaignColumns = "id, client_id, name, message, status, scheduled_at, created_at, updated_at"

// Create inserts a new draft campaign.
func (r *PostgresRepository) Create(ctx context.Context, clientID string, req CreateCampaignRequest) (*Campaign, error) {
	now := time.Now().UTC()
	c := &Campaign{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Name:        req.Name,
		Message:     req.Message,
		Status:      StatusDraft,
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO campaigns (id, client_id, name, message, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ClientID, c.Name, c.Message, string(c.Status), c.ScheduledAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("campaigns: insert failed: %w", err)
	}
	return c, nil
}

// GetByID fetches one campaign scoped to the client.
func (r *PostgresRepository) GetByID(ctx context.Context, clientID, id string) (*Campaign, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1 AND client_id = $2`,
		id, clientID,
	)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaigns: get failed: %w", err)
	}
	return c, nil
}

// ListByClient fetches the client's campaigns, newest-first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]*Campaign, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE client_id = $1
		ORDER BY created_at DESC, id`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("campaigns: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("campaigns: scan failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaigns: rows failed: %w", err)
	}
	return out, nil
}

// Update edits name, message, and schedule. Status is untouched.
func (r *PostgresRepository) Update(ctx context.Context, clientID, id string, req UpdateCampaignRequest) (*Campaign, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE campaigns
		SET name = $3, message = $4, scheduled_at = $5, updated_at = $6
		WHERE id = $1 AND client_id = $2
		RETURNING `+campaignColumns,
		id, clientID, req.Name, req.Message, req.ScheduledAt, time.Now().UTC(),
	)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaigns: update failed: %w", err)
	}
	return c, nil
}

// SetStatus moves the campaign to a new status. The transition is checked
// against the current stored status inside the UPDATE so concurrent
// transitions cannot race past the state machine.
func (r *PostgresRepository) SetStatus(ctx context.Context, clientID, id string, status Status) (*Campaign, error) {
	current, err := r.GetByID(ctx, clientID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE campaigns
		SET status = $3, updated_at = $4
		WHERE id = $1 AND client_id = $2 AND status = $5
		RETURNING `+campaignColumns,
		id, clientID, string(status), time.Now().UTC(), string(current.Status),
	)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		// Lost a race with another transition.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	if err != nil {
		return nil, fmt.Errorf("campaigns: set status failed: %w", err)
	}
	return c, nil
}

func scanCampaign(row pgx.Row) (*Campaign, error) {
	var c Campaign
	var status string
	if err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.Name,
		&c.Message,
		&status,
		&c.ScheduledAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

// InMemoryRepository keeps campaigns in process memory. Used in tests and
// when no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*Campaign // clientID -> id -> campaign
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: map[string]map[string]*Campaign{}}
}

var _ Repository = (*InMemoryRepository)(nil)

func (r *InMemoryRepository) Create(_ context.Context, clientID string, req CreateCampaignRequest) (*Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c := &Campaign{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Name:        req.Name,
		Message:     req.Message,
		Status:      StatusDraft,
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.items[clientID] == nil {
		r.items[clientID] = map[string]*Campaign{}
	}
	r.items[clientID][c.ID] = c

	clone := *c
	return &clone, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, clientID, id string) (*Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[clientID][id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *InMemoryRepository) ListByClient(_ context.Context, clientID string) ([]*Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Campaign{}
	for _, c := range r.items[clientID] {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Update(_ context.Context, clientID, id string, req UpdateCampaignRequest) (*Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[clientID][id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	c.Name = req.Name
	c.Message = req.Message
	c.ScheduledAt = req.ScheduledAt
	c.UpdatedAt = time.Now().UTC()

	clone := *c
	return &clone, nil
}

func (r *InMemoryRepository) SetStatus(_ context.Context, clientID, id string, status Status) (*Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[clientID][id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	if !CanTransition(c.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, status)
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()

	clone := *c
	return &clone, nil
}
