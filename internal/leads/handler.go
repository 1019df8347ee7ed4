package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leadlinehq/leadline/internal/observability/metrics"
	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Notifier delivers an import summary to the account owner after a bulk
// upload finishes. Failures never affect the import result.
type Notifier interface {
	NotifyImportSummary(clientID string, processed, valid, invalid, duplicates int)
}

// Handler handles HTTP requests for the lead collection.
type Handler struct {
	repo     Repository
	cache    *Cache
	archive  UploadArchiver
	notifier Notifier
	metrics  *metrics.IngestMetrics
	logger   *logging.Logger

	maxUploadBytes int64
	maxBatchRows   int
}

// UploadArchiver stores raw upload files for later audit. Implemented by the
// S3 store in internal/uploads; a disabled archiver reports Enabled() false.
type UploadArchiver interface {
	Enabled() bool
	Store(ctx context.Context, clientID, fileName string, data []byte) (string, error)
}

// NewHandler creates a new leads handler. Cache, archive, notifier, and
// metrics may be nil; each degrades to a no-op.
func NewHandler(repo Repository, cache *Cache, archive UploadArchiver, notifier Notifier, m *metrics.IngestMetrics, logger *logging.Logger, maxUploadBytes int64, maxBatchRows int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	if maxBatchRows <= 0 {
		maxBatchRows = 50000
	}
	return &Handler{
		repo:           repo,
		cache:          cache,
		archive:        archive,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		maxBatchRows:   maxBatchRows,
	}
}

// ImportResponse is the response body for POST /leads/import.
type ImportResponse struct {
	Message     string       `json:"message"`
	Summary     BatchSummary `json:"summary"`
	FailedFiles []string     `json:"failed_files,omitempty"`
}

// ImportLeads handles POST /leads/import. It accepts one or more files under
// the multipart field "files", parses and classifies every row across all
// files as a single batch, and persists the valid subset in one insert.
func (h *Handler) ImportLeads(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Warn("multipart parse failed", "error", err, "client_id", clientID)
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}

	ingestor := NewIngestor()
	var batch []*Lead
	var failed []string

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("upload open failed", "error", err, "file", fh.Filename)
			failed = append(failed, fh.Filename)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.logger.Warn("upload read failed", "error", err, "file", fh.Filename)
			failed = append(failed, fh.Filename)
			continue
		}

		parsed, err := ingestor.ParseFile(fh.Filename, bytes.NewReader(data))
		if err != nil {
			// One bad file must not sink the rest of the upload.
			h.logger.Warn("upload parse failed", "error", err, "file", fh.Filename)
			failed = append(failed, fh.Filename)
			continue
		}
		batch = append(batch, parsed...)

		if h.archive != nil && h.archive.Enabled() {
			if key, err := h.archive.Store(r.Context(), clientID, fh.Filename, data); err != nil {
				h.logger.Warn("upload archive failed", "error", err, "file", fh.Filename)
			} else {
				h.logger.Info("upload archived", "key", key, "file", fh.Filename)
			}
		}
	}

	if len(batch) == 0 {
		h.metrics.ObserveBatch("empty")
		http.Error(w, ErrEmptyBatch.Error(), http.StatusBadRequest)
		return
	}
	if len(batch) > h.maxBatchRows {
		h.metrics.ObserveBatch("too_large")
		http.Error(w, fmt.Sprintf("upload exceeds %d rows", h.maxBatchRows), http.StatusRequestEntityTooLarge)
		return
	}

	valid := FilterValid(batch)
	if len(valid) > 0 {
		start := time.Now()
		err := h.repo.InsertBatch(r.Context(), clientID, valid)
		h.metrics.ObserveInsertLatency(time.Since(start).Seconds())
		if err != nil {
			h.logger.Error("batch insert failed", "error", err, "client_id", clientID, "rows", len(valid))
			h.metrics.ObserveBatch("failed")
			http.Error(w, "failed to save leads", http.StatusInternalServerError)
			return
		}
		h.cache.Invalidate(r.Context(), clientID)
	}

	summary := Summarize(batch)
	for _, lead := range batch {
		h.metrics.ObserveRow(string(lead.Status))
	}
	h.metrics.ObserveBatch("ok")

	if h.notifier != nil {
		h.notifier.NotifyImportSummary(clientID, summary.Processed, summary.Valid, summary.Invalid, summary.Duplicates)
	}

	h.logger.Info("batch imported",
		"client_id", clientID,
		"processed", summary.Processed,
		"valid", summary.Valid,
		"invalid", summary.Invalid,
		"duplicates", summary.Duplicates,
		"failed_files", len(failed))

	resp := ImportResponse{
		Message: fmt.Sprintf("Processed %d leads. %d valid, %d invalid/duplicate.",
			summary.Processed, summary.Valid, summary.Invalid+summary.Duplicates),
		Summary:     summary,
		FailedFiles: failed,
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateLead handles POST /leads for manual entries. Both field validators
// run and all failures are reported together; the duplicate check spans the
// caller's entire stored collection, not just one batch.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var errs []string
	if res := ValidateEmail(req.Email); !res.Valid {
		errs = append(errs, res.Errors...)
	}
	if res := ValidatePhone(req.Phone); !res.Valid {
		errs = append(errs, res.Errors...)
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	existing, err := h.repo.FindByContact(r.Context(), clientID, NormalizeEmail(req.Email), NormalizePhone(req.Phone))
	if err != nil {
		h.logger.Error("duplicate lookup failed", "error", err, "client_id", clientID)
		http.Error(w, "failed to save lead", http.StatusInternalServerError)
		return
	}
	if len(existing) > 0 {
		http.Error(w, ErrDuplicateLead.Error(), http.StatusConflict)
		return
	}

	source := req.Source
	if source == "" {
		source = ManualSource
	}
	lead := &Lead{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    source,
		Status:    StatusValid,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.InsertBatch(r.Context(), clientID, []*Lead{lead}); err != nil {
		h.logger.Error("failed to create lead", "error", err, "client_id", clientID)
		http.Error(w, "failed to save lead", http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(r.Context(), clientID)
	h.metrics.ObserveRow(string(StatusValid))

	h.logger.Info("lead created", "id", lead.ID, "client_id", clientID)
	writeJSON(w, http.StatusCreated, lead)
}

// ListLeadsResponse is the response for listing the lead collection.
type ListLeadsResponse struct {
	Leads []*Lead `json:"leads"`
	Count int     `json:"count"`
}

// ListLeads handles GET /leads, newest first.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	if cached, hit := h.cache.Get(r.Context(), clientID); hit {
		writeJSON(w, http.StatusOK, ListLeadsResponse{Leads: cached, Count: len(cached)})
		return
	}

	collection, err := h.repo.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "client_id", clientID)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	if collection == nil {
		collection = []*Lead{}
	}
	h.cache.Set(r.Context(), clientID, collection)

	writeJSON(w, http.StatusOK, ListLeadsResponse{Leads: collection, Count: len(collection)})
}

// DeleteLead handles DELETE /leads/{leadID}. The record is only removed when
// it belongs to the caller; anything else is reported as not found.
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	leadID := chi.URLParam(r, "leadID")
	if leadID == "" {
		http.Error(w, "missing lead id", http.StatusBadRequest)
		return
	}

	deleted, err := h.repo.Delete(r.Context(), clientID, leadID)
	if err != nil {
		h.logger.Error("failed to delete lead", "error", err, "client_id", clientID, "lead_id", leadID)
		http.Error(w, "failed to delete lead", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, ErrLeadNotFound.Error(), http.StatusNotFound)
		return
	}

	h.cache.Invalidate(r.Context(), clientID)
	h.logger.Info("lead deleted", "id", leadID, "client_id", clientID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
