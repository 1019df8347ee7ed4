package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/pkg/logging"
)

type fakeJobs struct {
	mu        sync.Mutex
	completed []string
	failed    map[string]string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{failed: map[string]string{}}
}

func (f *fakeJobs) MarkCompleted(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, jobID string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = errMsg
	return nil
}

type failingSender struct{ err error }

func (s *failingSender) Send(context.Context, messaging.OutboundMessage) error { return s.err }

func sqsRecord(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

func TestHandleDeliversBatch(t *testing.T) {
	sender := messaging.NewStubSender(logging.New("error"))
	jobs := newFakeJobs()
	h := &handler{sender: sender, jobs: jobs, logger: logging.New("error")}

	evt := events.SQSEvent{Records: []events.SQSMessage{
		sqsRecord("m-1", `{"job_id":"job-1","client_id":"client-1","campaign_id":"camp-1","to":"+15551234567","body":"Hi!"}`),
		sqsRecord("m-2", `{"job_id":"job-2","client_id":"client-1","campaign_id":"camp-1","to":"+15557654321","body":"Hi again!"}`),
	}}

	resp, err := h.Handle(context.Background(), evt)
	require.NoError(t, err)
	require.Empty(t, resp.BatchItemFailures)

	sent := sender.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "+15551234567", sent[0].To)
	require.Equal(t, "Hi!", sent[0].Body)
	require.ElementsMatch(t, []string{"job-1", "job-2"}, jobs.completed)
}

func TestHandleMarksFailedWithoutRetryOnClientError(t *testing.T) {
	jobs := newFakeJobs()
	h := &handler{
		sender: &failingSender{err: errors.New("twilio send failed: status 400: invalid number")},
		jobs:   jobs,
		logger: logging.New("error"),
	}

	evt := events.SQSEvent{Records: []events.SQSMessage{
		sqsRecord("m-1", `{"job_id":"job-1","to":"+15551234567","body":"Hi!"}`),
	}}

	resp, err := h.Handle(context.Background(), evt)
	require.NoError(t, err)
	require.Empty(t, resp.BatchItemFailures)
	require.Contains(t, jobs.failed["job-1"], "status 400")
}

func TestHandleRetriesServerErrors(t *testing.T) {
	h := &handler{
		sender: &failingSender{err: errors.New("twilio send failed: status 503")},
		jobs:   newFakeJobs(),
		logger: logging.New("error"),
	}

	evt := events.SQSEvent{Records: []events.SQSMessage{
		sqsRecord("m-1", `{"job_id":"job-1","to":"+15551234567","body":"Hi!"}`),
	}}

	resp, err := h.Handle(context.Background(), evt)
	require.NoError(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	require.Equal(t, "m-1", resp.BatchItemFailures[0].ItemIdentifier)
}

func TestHandleDropsPoisonMessages(t *testing.T) {
	sender := messaging.NewStubSender(logging.New("error"))
	h := &handler{sender: sender, jobs: newFakeJobs(), logger: logging.New("error")}

	evt := events.SQSEvent{Records: []events.SQSMessage{
		sqsRecord("m-1", `{not json`),
		sqsRecord("m-2", `{"job_id":"job-2","to":"+15557654321","body":"Hi!"}`),
	}}

	resp, err := h.Handle(context.Background(), evt)
	require.NoError(t, err)
	require.Empty(t, resp.BatchItemFailures)
	require.Len(t, sender.Sent(), 1)
}
