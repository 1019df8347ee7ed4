package analytics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Handler serves the dashboard summary endpoint.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new analytics HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// GetSummary returns aggregated numbers for the calling client.
// GET /analytics/summary
// Query params:
//   - start: RFC3339 timestamp for period start (optional)
//   - end: RFC3339 timestamp for period end (optional)
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var start, end *time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, `{"error": "invalid start time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		start = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			http.Error(w, `{"error": "invalid end time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		end = &t
	}
	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "both start and end must be provided, or neither"}`, http.StatusBadRequest)
		return
	}

	summary, err := h.repo.GetSummary(r.Context(), clientID, start, end)
	if err != nil {
		h.logger.Error("failed to load analytics summary", "client_id", clientID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.logger.Error("failed to encode analytics summary", "client_id", clientID, "error", err)
	}
}
