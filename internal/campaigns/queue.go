package campaigns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// queueClient abstracts the send queue so the worker runs identically against
// SQS and the in-memory queue.
type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// sendPayload is the queued unit of work for one outbound test send.
type sendPayload struct {
	JobID      string `json:"job_id"`
	ClientID   string `json:"client_id"`
	CampaignID string `json:"campaign_id"`
	To         string `json:"to"`
	Body       string `json:"body"`
}

func encodePayload(payload sendPayload) (sendPayload, string, error) {
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return sendPayload{}, "", fmt.Errorf("campaigns: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}
