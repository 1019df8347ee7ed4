// Package analytics aggregates per-client dashboard numbers from the
// leads and campaigns tables.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Summary is the dashboard roll-up for one client.
type Summary struct {
	ClientID          string           `json:"client_id"`
	TotalLeads        int64            `json:"total_leads"`
	LeadsLast30Days   int64            `json:"leads_last_30_days"`
	LeadsBySource     map[string]int64 `json:"leads_by_source"`
	CampaignsByStatus map[string]int64 `json:"campaigns_by_status"`
	PeriodStart       string           `json:"period_start"`
	PeriodEnd         string           `json:"period_end"`
}

// Repository queries dashboard aggregates from the database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new analytics repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("analytics: database required")
	}
	return &Repository{db: db}
}

// GetSummary retrieves aggregated numbers for a client. Optional start/end
// times filter the lead counts; if nil, all-time numbers are returned.
func (r *Repository) GetSummary(ctx context.Context, clientID string, start, end *time.Time) (*Summary, error) {
	summary := &Summary{
		ClientID:          clientID,
		LeadsBySource:     map[string]int64{},
		CampaignsByStatus: map[string]int64{},
	}

	var timeFilter string
	args := []any{clientID}
	if start != nil && end != nil {
		timeFilter = fmt.Sprintf(" AND created_at >= $%d AND created_at < $%d", 2, 3)
		args = append(args, *start, *end)
		summary.PeriodStart = start.Format(time.RFC3339)
		summary.PeriodEnd = end.Format(time.RFC3339)
	} else {
		summary.PeriodStart = "all-time"
		summary.PeriodEnd = "now"
	}

	totalQuery := `SELECT COUNT(*) FROM leads WHERE client_id = $1` + timeFilter
	if err := r.db.QueryRowContext(ctx, totalQuery, args...).Scan(&summary.TotalLeads); err != nil {
		return nil, fmt.Errorf("analytics: count leads: %w", err)
	}

	recentQuery := `SELECT COUNT(*) FROM leads WHERE client_id = $1 AND created_at >= NOW() - INTERVAL '30 days'`
	if err := r.db.QueryRowContext(ctx, recentQuery, clientID).Scan(&summary.LeadsLast30Days); err != nil {
		return nil, fmt.Errorf("analytics: count recent leads: %w", err)
	}

	sourceQuery := `SELECT source, COUNT(*) FROM leads WHERE client_id = $1` + timeFilter + ` GROUP BY source`
	if err := r.groupCounts(ctx, sourceQuery, args, summary.LeadsBySource); err != nil {
		return nil, fmt.Errorf("analytics: leads by source: %w", err)
	}

	campaignQuery := `SELECT status, COUNT(*) FROM campaigns WHERE client_id = $1 GROUP BY status`
	if err := r.groupCounts(ctx, campaignQuery, []any{clientID}, summary.CampaignsByStatus); err != nil {
		return nil, fmt.Errorf("analytics: campaigns by status: %w", err)
	}

	return summary, nil
}

func (r *Repository) groupCounts(ctx context.Context, query string, args []any, out map[string]int64) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		if key == "" {
			key = "unknown"
		}
		out[key] = count
	}
	return rows.Err()
}
