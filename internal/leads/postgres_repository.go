package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the pool subset used by PostgresRepository; pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db PgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = "id, client_id, name, email, phone, source, status, validation_errors, is_duplicate, created_at"

// InsertBatch persists the batch as one multi-row INSERT so it succeeds or
// fails as a unit.
func (r *PostgresRepository) InsertBatch(ctx context.Context, clientID string, batch []*Lead) error {
	if len(batch) == 0 {
		return nil
	}

	const fieldsPerRow = 12
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO leads (id, client_id, name, email, phone,
			email_normalized, phone_normalized, source, status,
			validation_errors, is_duplicate, created_at)
		VALUES `)

	args := make([]any, 0, len(batch)*fieldsPerRow)
	for i, lead := range batch {
		lead.ID = uuid.NewString()
		lead.ClientID = clientID
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = time.Now().UTC()
		}

		errList := lead.ValidationErrors
		if errList == nil {
			errList = []string{}
		}
		errJSON, err := json.Marshal(errList)
		if err != nil {
			return fmt.Errorf("leads: encode validation errors: %w", err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * fieldsPerRow
		sb.WriteString("(")
		for f := 1; f <= fieldsPerRow; f++ {
			if f > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+f)
		}
		sb.WriteString(")")

		args = append(args,
			lead.ID,
			lead.ClientID,
			lead.Name,
			lead.Email,
			lead.Phone,
			NormalizeEmail(lead.Email),
			NormalizePhone(lead.Phone),
			lead.Source,
			string(lead.Status),
			errJSON,
			lead.IsDuplicate,
			lead.CreatedAt,
		)
	}

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("leads: batch insert failed: %w", err)
	}
	return nil
}

// ListByClient fetches all records for the client, newest-first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE client_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// FindByContact runs the owner-scoped exact-match duplicate query used by the
// manual entry path.
func (r *PostgresRepository) FindByContact(ctx context.Context, clientID, emailNorm, phoneNorm string) ([]*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE client_id = $1
		  AND ((email_normalized = $2 AND $2 <> '') OR (phone_normalized = $3 AND $3 <> ''))
	`
	rows, err := r.db.Query(ctx, query, clientID, emailNorm, phoneNorm)
	if err != nil {
		return nil, fmt.Errorf("leads: contact lookup failed: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// Delete removes one record by id, scoped to the client.
func (r *PostgresRepository) Delete(ctx context.Context, clientID, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND client_id = $2`, id, clientID)
	if err != nil {
		return false, fmt.Errorf("leads: delete failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanLeads(rows pgx.Rows) ([]*Lead, error) {
	out := []*Lead{}
	for rows.Next() {
		var lead Lead
		var rawErrors []byte
		var status string
		if err := rows.Scan(
			&lead.ID,
			&lead.ClientID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Source,
			&status,
			&rawErrors,
			&lead.IsDuplicate,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		lead.Status = Status(status)
		lead.ValidationErrors = NormalizeErrorList(rawErrors)
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: rows failed: %w", err)
	}
	return out, nil
}
