package leads

import "time"

// Status classifies a lead record during batch ingestion.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusDuplicate Status = "duplicate"
)

// Lead represents one contact extracted from an upload or entered manually.
type Lead struct {
	ID               string    `json:"id"`
	ClientID         string    `json:"client_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Source           string    `json:"source"`
	Status           Status    `json:"status"`
	ValidationErrors []string  `json:"validation_errors,omitempty"`
	IsDuplicate      bool      `json:"is_duplicate"`
	CreatedAt        time.Time `json:"created_at"`
}

// ManualSource is recorded when a lead is keyed in rather than uploaded.
const ManualSource = "Manual Entry"

// CreateLeadRequest represents the request body for a manual lead entry.
type CreateLeadRequest struct {
	ClientID string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Source   string `json:"source"`
}

// BatchSummary reports the outcome of one upload action.
type BatchSummary struct {
	Processed  int `json:"processed"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
}

// Summarize tallies statuses across a parsed batch.
func Summarize(batch []*Lead) BatchSummary {
	sum := BatchSummary{Processed: len(batch)}
	for _, lead := range batch {
		switch lead.Status {
		case StatusValid:
			sum.Valid++
		case StatusDuplicate:
			sum.Duplicates++
		default:
			sum.Invalid++
		}
	}
	return sum
}
