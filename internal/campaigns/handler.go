package campaigns

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leadlinehq/leadline/internal/leads"
	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Handler handles HTTP requests for campaigns.
type Handler struct {
	repo   Repository
	queue  queueClient
	jobs   JobRecorder
	logger *logging.Logger
}

// NewHandler creates a new campaigns handler. Queue and jobs may be nil when
// test sends are not configured.
func NewHandler(repo Repository, queue queueClient, jobs JobRecorder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		queue:  queue,
		jobs:   jobs,
		logger: logger,
	}
}

// CreateCampaign handles POST /campaigns. New campaigns always start as
// drafts.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c, err := h.repo.Create(r.Context(), clientID, req)
	if err != nil {
		h.logger.Error("failed to create campaign", "error", err, "client_id", clientID)
		http.Error(w, "failed to create campaign", http.StatusInternalServerError)
		return
	}

	h.logger.Info("campaign created", "id", c.ID, "client_id", clientID)
	writeJSON(w, http.StatusCreated, c)
}

// ListCampaignsResponse is the response for listing campaigns.
type ListCampaignsResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
	Count     int         `json:"count"`
}

// ListCampaigns handles GET /campaigns.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	out, err := h.repo.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to list campaigns", "error", err, "client_id", clientID)
		http.Error(w, "failed to list campaigns", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListCampaignsResponse{Campaigns: out, Count: len(out)})
}

// GetCampaign handles GET /campaigns/{campaignID}.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	c, err := h.repo.GetByID(r.Context(), clientID, chi.URLParam(r, "campaignID"))
	if errors.Is(err, ErrCampaignNotFound) {
		http.Error(w, ErrCampaignNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get campaign", "error", err, "client_id", clientID)
		http.Error(w, "failed to get campaign", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCampaign handles PUT /campaigns/{campaignID}.
func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var req UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c, err := h.repo.Update(r.Context(), clientID, chi.URLParam(r, "campaignID"), req)
	if errors.Is(err, ErrCampaignNotFound) {
		http.Error(w, ErrCampaignNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update campaign", "error", err, "client_id", clientID)
		http.Error(w, "failed to update campaign", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// statusRequest is the body for PATCH /campaigns/{campaignID}/status.
type statusRequest struct {
	Status Status `json:"status"`
}

// SetCampaignStatus handles PATCH /campaigns/{campaignID}/status, enforcing
// the lifecycle state machine.
func (h *Handler) SetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !ValidStatus(req.Status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	c, err := h.repo.SetStatus(r.Context(), clientID, chi.URLParam(r, "campaignID"), req.Status)
	if errors.Is(err, ErrCampaignNotFound) {
		http.Error(w, ErrCampaignNotFound.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrInvalidTransition) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("failed to set campaign status", "error", err, "client_id", clientID)
		http.Error(w, "failed to set campaign status", http.StatusInternalServerError)
		return
	}

	h.logger.Info("campaign status changed", "id", c.ID, "status", c.Status, "client_id", clientID)
	writeJSON(w, http.StatusOK, c)
}

// testSendRequest is the body for POST /campaigns/{campaignID}/test.
type testSendRequest struct {
	Phone string `json:"phone"`
}

// testSendResponse acknowledges the queued send.
type testSendResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// TestSend handles POST /campaigns/{campaignID}/test. The message is queued
// and delivered asynchronously; poll the job endpoint for the outcome.
func (h *Handler) TestSend(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}
	if h.queue == nil || h.jobs == nil {
		http.Error(w, "test sends are not configured", http.StatusServiceUnavailable)
		return
	}

	var req testSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if res := leads.ValidatePhone(req.Phone); !res.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": res.Errors})
		return
	}

	c, err := h.repo.GetByID(r.Context(), clientID, chi.URLParam(r, "campaignID"))
	if errors.Is(err, ErrCampaignNotFound) {
		http.Error(w, ErrCampaignNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get campaign for test send", "error", err, "client_id", clientID)
		http.Error(w, "failed to queue test send", http.StatusInternalServerError)
		return
	}
	if c.Message == "" {
		http.Error(w, "campaign has no message to send", http.StatusBadRequest)
		return
	}

	job := &SendJob{
		JobID:      uuid.NewString(),
		ClientID:   clientID,
		CampaignID: c.ID,
		To:         messaging.NormalizeE164(req.Phone),
	}
	if err := h.jobs.PutPending(r.Context(), job); err != nil {
		h.logger.Error("failed to persist send job", "error", err, "client_id", clientID)
		http.Error(w, "failed to queue test send", http.StatusInternalServerError)
		return
	}

	_, body, err := encodePayload(sendPayload{
		JobID:      job.JobID,
		ClientID:   clientID,
		CampaignID: c.ID,
		To:         job.To,
		Body:       c.Message,
	})
	if err != nil {
		http.Error(w, "failed to queue test send", http.StatusInternalServerError)
		return
	}
	if err := h.queue.Send(r.Context(), body); err != nil {
		h.logger.Error("failed to enqueue send job", "error", err, "job_id", job.JobID)
		http.Error(w, "failed to queue test send", http.StatusInternalServerError)
		return
	}

	h.logger.Info("test send queued", "job_id", job.JobID, "campaign_id", c.ID, "client_id", clientID)
	writeJSON(w, http.StatusAccepted, testSendResponse{JobID: job.JobID, Status: JobStatusPending})
}

// GetSendJob handles GET /campaigns/jobs/{jobID}.
func (h *Handler) GetSendJob(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}
	if h.jobs == nil {
		http.Error(w, "test sends are not configured", http.StatusServiceUnavailable)
		return
	}

	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, ErrJobNotFound) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch send job", "error", err, "client_id", clientID)
		http.Error(w, "failed to fetch job", http.StatusInternalServerError)
		return
	}
	// Jobs are never visible across accounts.
	if job.ClientID != clientID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
