package partners

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadlinehq/leadline/internal/leads"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Handler exposes the admin partner directory. Routes are mounted behind the
// admin JWT middleware; there is no per-client scoping here.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreatePartner handles POST /admin/partners.
func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	var req CreatePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var errs []string
	if req.CompanyName == "" {
		errs = append(errs, "Company name is required")
	}
	if res := leads.ValidateEmail(req.ContactEmail); !res.Valid {
		errs = append(errs, res.Errors...)
	}
	if req.ContactPhone != "" {
		if res := leads.ValidatePhone(req.ContactPhone); !res.Valid {
			errs = append(errs, res.Errors...)
		}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	p, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create partner", "error", err)
		http.Error(w, "failed to create partner", http.StatusInternalServerError)
		return
	}

	h.logger.Info("partner registered", "id", p.ID, "company", p.CompanyName)
	writeJSON(w, http.StatusCreated, p)
}

// ListPartnersResponse is the response for listing partners.
type ListPartnersResponse struct {
	Partners []*Partner `json:"partners"`
	Count    int        `json:"count"`
}

// ListPartners handles GET /admin/partners.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list partners", "error", err)
		http.Error(w, "failed to list partners", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListPartnersResponse{Partners: out, Count: len(out)})
}

// GetPartner handles GET /admin/partners/{partnerID}, including the review
// timeline.
func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), chi.URLParam(r, "partnerID"))
	if errors.Is(err, ErrPartnerNotFound) {
		http.Error(w, ErrPartnerNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get partner", "error", err)
		http.Error(w, "failed to get partner", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// statusRequest is the body for PATCH /admin/partners/{partnerID}/status.
type statusRequest struct {
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// SetPartnerStatus handles PATCH /admin/partners/{partnerID}/status.
func (h *Handler) SetPartnerStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !ValidStatus(req.Status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	p, err := h.repo.SetStatus(r.Context(), chi.URLParam(r, "partnerID"), req.Status, req.Detail)
	if errors.Is(err, ErrPartnerNotFound) {
		http.Error(w, ErrPartnerNotFound.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrInvalidTransition) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("failed to set partner status", "error", err)
		http.Error(w, "failed to set partner status", http.StatusInternalServerError)
		return
	}

	h.logger.Info("partner status changed", "id", p.ID, "status", p.Status)
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
