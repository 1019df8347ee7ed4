package agents

import (
	"encoding/json"
	"net/http"

	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Handler exposes each client's agent configuration.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// GetConfig handles GET /agents/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	cfg, err := h.store.Get(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to load agent config", "error", err, "client_id", clientID)
		http.Error(w, "failed to load agent config", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutConfig handles PUT /agents/config. The stored config is replaced
// wholesale; the client id always comes from the request context.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	clientID, ok := tenancy.ClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing client context", http.StatusUnauthorized)
		return
	}

	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg.ClientID = clientID

	if errs := cfg.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	if err := h.store.Set(r.Context(), &cfg); err != nil {
		h.logger.Error("failed to save agent config", "error", err, "client_id", clientID)
		http.Error(w, "failed to save agent config", http.StatusInternalServerError)
		return
	}

	h.logger.Info("agent config updated", "client_id", clientID, "enabled", cfg.Enabled)
	writeJSON(w, http.StatusOK, &cfg)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
