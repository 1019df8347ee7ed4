package campaigns

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/internal/observability/metrics"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Worker drains the send queue and delivers campaign test messages.
type Worker struct {
	queue   queueClient
	jobs    JobUpdater
	sender  messaging.Sender
	metrics *metrics.IngestMetrics
	logger  *logging.Logger
	count   int
}

// NewWorker builds a worker pool over the queue. count is the number of
// concurrent consumers.
func NewWorker(queue queueClient, jobs JobUpdater, sender messaging.Sender, m *metrics.IngestMetrics, logger *logging.Logger, count int) *Worker {
	if queue == nil {
		panic("campaigns: queue cannot be nil")
	}
	if sender == nil {
		panic("campaigns: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if count <= 0 {
		count = 1
	}
	return &Worker{
		queue:   queue,
		jobs:    jobs,
		sender:  sender,
		metrics: m,
		logger:  logger,
		count:   count,
	}
}

// Run consumes the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := w.queue.Receive(ctx, 5, 5)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue receive failed", "error", err, "worker", id)
			continue
		}

		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg queueMessage) {
	var payload sendPayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		// Poison message: log and drop, there is no job to fail.
		w.logger.Error("undecodable queue message dropped", "error", err, "message_id", msg.ID)
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	err := w.sender.Send(ctx, messaging.OutboundMessage{
		ClientID: payload.ClientID,
		To:       payload.To,
		Body:     payload.Body,
	})
	if err != nil {
		w.logger.Error("campaign send failed", "error", err, "job_id", payload.JobID, "campaign_id", payload.CampaignID)
		w.metrics.ObserveSend(string(JobStatusFailed))
		if w.jobs != nil {
			if jerr := w.jobs.MarkFailed(ctx, payload.JobID, err.Error()); jerr != nil {
				w.logger.Error("failed to mark job failed", "error", jerr, "job_id", payload.JobID)
			}
		}
	} else {
		w.logger.Info("campaign send delivered", "job_id", payload.JobID, "campaign_id", payload.CampaignID, "to", payload.To)
		w.metrics.ObserveSend(string(JobStatusCompleted))
		if w.jobs != nil {
			if jerr := w.jobs.MarkCompleted(ctx, payload.JobID); jerr != nil {
				w.logger.Error("failed to mark job completed", "error", jerr, "job_id", payload.JobID)
			}
		}
	}

	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("queue delete failed", "error", err, "message_id", msg.ID)
	}
}
