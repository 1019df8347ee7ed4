package campaigns

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/leadlinehq/leadline/internal/tenancy"
	"github.com/leadlinehq/leadline/pkg/logging"
)

func withClient(r *http.Request, clientID string) *http.Request {
	return r.WithContext(tenancy.WithClientID(r.Context(), clientID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newTestHandler() (*Handler, *InMemoryRepository, *MemoryQueue, *memJobs) {
	repo := NewInMemoryRepository()
	queue := NewMemoryQueue(8)
	jobs := newMemJobs()
	return NewHandler(repo, queue, jobs, logging.New("error")), repo, queue, jobs
}

func createCampaign(t *testing.T, h *Handler, clientID, body string) *Campaign {
	t.Helper()
	req := withClient(httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body)), clientID)
	rec := httptest.NewRecorder()
	h.CreateCampaign(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var c Campaign
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode campaign: %v", err)
	}
	return &c
}

func TestCreateAndListCampaigns(t *testing.T) {
	h, _, _, _ := newTestHandler()

	c := createCampaign(t, h, "client-1", `{"name":"Spring Promo","message":"20% off this week"}`)
	if c.Status != StatusDraft {
		t.Errorf("new campaigns must start as draft, got %s", c.Status)
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/campaigns", nil), "client-1")
	rec := httptest.NewRecorder()
	h.ListCampaigns(rec, req)
	var resp ListCampaignsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Count != 1 || resp.Campaigns[0].Name != "Spring Promo" {
		t.Errorf("unexpected list: %+v", resp)
	}

	// Other clients see nothing.
	req = withClient(httptest.NewRequest(http.MethodGet, "/campaigns", nil), "client-2")
	rec = httptest.NewRecorder()
	h.ListCampaigns(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("campaigns must be scoped by client, got %d", resp.Count)
	}
}

func TestCreateCampaignRequiresName(t *testing.T) {
	h, _, _, _ := newTestHandler()
	req := withClient(httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(`{"message":"hi"}`)), "client-1")
	rec := httptest.NewRecorder()
	h.CreateCampaign(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without name, got %d", rec.Code)
	}
}

func TestSetCampaignStatus(t *testing.T) {
	h, _, _, _ := newTestHandler()
	c := createCampaign(t, h, "client-1", `{"name":"Promo","message":"hi"}`)

	patch := func(status string) *httptest.ResponseRecorder {
		req := withClient(httptest.NewRequest(http.MethodPatch, "/campaigns/"+c.ID+"/status", strings.NewReader(`{"status":"`+status+`"}`)), "client-1")
		req = withURLParam(req, "campaignID", c.ID)
		rec := httptest.NewRecorder()
		h.SetCampaignStatus(rec, req)
		return rec
	}

	if rec := patch("active"); rec.Code != http.StatusOK {
		t.Fatalf("draft -> active should succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := patch("paused"); rec.Code != http.StatusOK {
		t.Fatalf("active -> paused should succeed, got %d", rec.Code)
	}
	if rec := patch("scheduled"); rec.Code != http.StatusConflict {
		t.Errorf("paused -> scheduled must be rejected, got %d", rec.Code)
	}
	if rec := patch("deleted"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status must be rejected, got %d", rec.Code)
	}
	if rec := patch("archived"); rec.Code != http.StatusOK {
		t.Fatalf("paused -> archived should succeed, got %d", rec.Code)
	}
	if rec := patch("active"); rec.Code != http.StatusConflict {
		t.Errorf("archived is terminal, got %d", rec.Code)
	}
}

func TestTestSendQueuesJob(t *testing.T) {
	h, _, queue, jobs := newTestHandler()
	c := createCampaign(t, h, "client-1", `{"name":"Promo","message":"Hello there"}`)

	req := withClient(httptest.NewRequest(http.MethodPost, "/campaigns/"+c.ID+"/test", strings.NewReader(`{"phone":"(555) 123-4567"}`)), "client-1")
	req = withURLParam(req, "campaignID", c.ID)
	rec := httptest.NewRecorder()
	h.TestSend(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp testSendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != JobStatusPending || resp.JobID == "" {
		t.Errorf("unexpected ack: %+v", resp)
	}

	job, err := jobs.GetJob(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.To != "+5551234567" {
		t.Errorf("expected normalized destination, got %q", job.To)
	}

	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected 1 queued message, got %d err=%v", len(msgs), err)
	}
	var payload sendPayload
	if err := json.Unmarshal([]byte(msgs[0].Body), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.JobID != resp.JobID || payload.Body != "Hello there" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestTestSendValidatesPhone(t *testing.T) {
	h, _, _, _ := newTestHandler()
	c := createCampaign(t, h, "client-1", `{"name":"Promo","message":"hi"}`)

	req := withClient(httptest.NewRequest(http.MethodPost, "/campaigns/"+c.ID+"/test", strings.NewReader(`{"phone":"123"}`)), "client-1")
	req = withURLParam(req, "campaignID", c.ID)
	rec := httptest.NewRecorder()
	h.TestSend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short phone, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Phone number must be between 10-15 digits") {
		t.Errorf("expected validator message, got %s", rec.Body.String())
	}
}

func TestTestSendUnknownCampaign(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := withClient(httptest.NewRequest(http.MethodPost, "/campaigns/nope/test", strings.NewReader(`{"phone":"5551234567"}`)), "client-1")
	req = withURLParam(req, "campaignID", "nope")
	rec := httptest.NewRecorder()
	h.TestSend(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetSendJobScopedToClient(t *testing.T) {
	h, _, _, jobs := newTestHandler()

	job := &SendJob{JobID: "job-9", ClientID: "client-1", CampaignID: "camp-1", To: "+15551234567"}
	if err := jobs.PutPending(context.Background(), job); err != nil {
		t.Fatalf("PutPending failed: %v", err)
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/campaigns/jobs/job-9", nil), "client-2")
	req = withURLParam(req, "jobID", "job-9")
	rec := httptest.NewRecorder()
	h.GetSendJob(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign job must be hidden, got %d", rec.Code)
	}

	req = withClient(httptest.NewRequest(http.MethodGet, "/campaigns/jobs/job-9", nil), "client-1")
	req = withURLParam(req, "jobID", "job-9")
	rec = httptest.NewRecorder()
	h.GetSendJob(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	var got SendJob
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if got.JobID != "job-9" || got.Status != JobStatusPending {
		t.Errorf("unexpected job: %+v", got)
	}
}
