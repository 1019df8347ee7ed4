package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leadlinehq/leadline/pkg/logging"
)

type captureEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (c *captureEmail) Send(_ context.Context, msg EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureEmail) messages() []EmailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EmailMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

func waitSend(t *testing.T, svc *Service, done chan struct{}, fn func()) {
	t.Helper()
	svc.afterSend = func() { done <- struct{}{} }
	fn()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async send")
	}
}

func TestNotifyImportSummary(t *testing.T) {
	email := &captureEmail{}
	svc := NewService(email, FixedRecipient("owner@example.com"), logging.New("error"))

	waitSend(t, svc, make(chan struct{}, 1), func() {
		svc.NotifyImportSummary("client-1", 10, 7, 2, 1)
	})

	sent := email.messages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	if sent[0].To != "owner@example.com" {
		t.Errorf("unexpected recipient: %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, "Processed: 10") || !strings.Contains(sent[0].Body, "Duplicates: 1") {
		t.Errorf("summary body missing counts: %q", sent[0].Body)
	}
}

func TestNotifyImportSummaryNoRecipient(t *testing.T) {
	email := &captureEmail{}
	svc := NewService(email, FixedRecipient(""), logging.New("error"))

	waitSend(t, svc, make(chan struct{}, 1), func() {
		svc.NotifyImportSummary("client-1", 1, 1, 0, 0)
	})

	if len(email.messages()) != 0 {
		t.Error("expected no email without a recipient")
	}
}

func TestNotifyImportSummarySendFailureIsSwallowed(t *testing.T) {
	email := &captureEmail{err: errors.New("provider down")}
	svc := NewService(email, FixedRecipient("owner@example.com"), logging.New("error"))

	// Must not panic or block the caller.
	waitSend(t, svc, make(chan struct{}, 1), func() {
		svc.NotifyImportSummary("client-1", 1, 1, 0, 0)
	})
}

func TestNotifyImportSummaryDisabled(t *testing.T) {
	svc := NewService(nil, FixedRecipient("owner@example.com"), logging.New("error"))
	svc.NotifyImportSummary("client-1", 1, 1, 0, 0)

	var nilSvc *Service
	nilSvc.NotifyImportSummary("client-1", 1, 1, 0, 0)
}
