package agents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

func withClient(r *http.Request, clientID string) *http.Request {
	return r.WithContext(tenancy.WithClientID(r.Context(), clientID))
}

func TestPutAndGetConfig(t *testing.T) {
	h := NewHandler(newTestStore(t), logging.New("error"))

	body := `{"enabled":true,"greeting":"Hi there!","transfer_number":"5551234567","client_id":"spoofed"}`
	req := withClient(httptest.NewRequest(http.MethodPut, "/agents/config", strings.NewReader(body)), "client-1")
	rec := httptest.NewRecorder()
	h.PutConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cfg Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.ClientID != "client-1" {
		t.Errorf("client id must come from context, got %q", cfg.ClientID)
	}

	req = withClient(httptest.NewRequest(http.MethodGet, "/agents/config", nil), "client-1")
	rec = httptest.NewRecorder()
	h.GetConfig(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if !cfg.Enabled || cfg.Greeting != "Hi there!" {
		t.Errorf("config not persisted: %+v", cfg)
	}
}

func TestPutConfigValidation(t *testing.T) {
	h := NewHandler(newTestStore(t), logging.New("error"))

	body := `{"enabled":true}`
	req := withClient(httptest.NewRequest(http.MethodPut, "/agents/config", strings.NewReader(body)), "client-1")
	rec := httptest.NewRecorder()
	h.PutConfig(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Greeting is required") {
		t.Errorf("expected greeting error, got %s", rec.Body.String())
	}
}

func TestGetConfigDefault(t *testing.T) {
	h := NewHandler(newTestStore(t), logging.New("error"))

	req := withClient(httptest.NewRequest(http.MethodGet, "/agents/config", nil), "client-1")
	rec := httptest.NewRecorder()
	h.GetConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cfg Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Enabled {
		t.Error("default config must be disabled")
	}
}
