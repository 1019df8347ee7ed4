package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/leadlinehq/leadline/pkg/logging"
)

func newTwilioForTest(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewTwilioSender("AC123", "token", "+15550001111", logging.New("error"))
	s.baseURL = srv.URL
	s.httpClient = srv.Client()
	return s
}

func TestTwilioSend(t *testing.T) {
	var gotTo, gotFrom, gotBody string
	s := newTwilioForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "token" {
			t.Errorf("unexpected basic auth: %s %s", user, pass)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	})

	meta := map[string]string{}
	err := s.Send(context.Background(), OutboundMessage{
		ClientID: "client-1",
		To:       "+15559998888",
		Body:     "Test campaign message",
		Metadata: meta,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotTo != "+15559998888" || gotBody != "Test campaign message" {
		t.Errorf("unexpected payload: to=%q body=%q", gotTo, gotBody)
	}
	if gotFrom != "+15550001111" {
		t.Errorf("expected default from number, got %q", gotFrom)
	}
	if meta["provider_message_id"] != "SM999" || meta["provider_status"] != "queued" {
		t.Errorf("expected provider metadata recorded, got %v", meta)
	}
}

func TestTwilioSendRetriesServerErrors(t *testing.T) {
	var calls int32
	s := newTwilioForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	})

	err := s.Send(context.Background(), OutboundMessage{To: "+15559998888", Body: "hi"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestTwilioSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	s := newTwilioForTest(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' number"}`))
	})

	err := s.Send(context.Background(), OutboundMessage{To: "+1", Body: "hi"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", got)
	}
}

func TestTwilioSendValidation(t *testing.T) {
	s := NewTwilioSender("AC123", "token", "", logging.New("error"))

	if err := s.Send(context.Background(), OutboundMessage{Body: "hi"}); err == nil {
		t.Error("expected error for missing to")
	}
	if err := s.Send(context.Background(), OutboundMessage{To: "+15559998888", Body: "hi"}); err == nil {
		t.Error("expected error for missing from")
	}
	if err := s.Send(context.Background(), OutboundMessage{To: "+15559998888", From: "+15550001111"}); err == nil {
		t.Error("expected error for empty body")
	}

	unconfigured := NewTwilioSender("", "", "+15550001111", logging.New("error"))
	if err := unconfigured.Send(context.Background(), OutboundMessage{To: "+15559998888", Body: "hi"}); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164(" +1 (555) 123-4567 "); got != "+15551234567" {
		t.Errorf("unexpected normalization: %q", got)
	}
	if got := NormalizeE164(""); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
	if got := NormalizeE164("abc"); got != "" {
		t.Errorf("expected empty result for non-digits, got %q", got)
	}
}
