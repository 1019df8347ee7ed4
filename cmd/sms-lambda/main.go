package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/leadlinehq/leadline/cmd/mainconfig"
	"github.com/leadlinehq/leadline/internal/campaigns"
	appconfig "github.com/leadlinehq/leadline/internal/config"
	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// sendPayload mirrors the JSON the API enqueues for each test send.
type sendPayload struct {
	JobID      string `json:"job_id"`
	ClientID   string `json:"client_id"`
	CampaignID string `json:"campaign_id"`
	To         string `json:"to"`
	Body       string `json:"body"`
}

type handler struct {
	sender messaging.Sender
	jobs   campaigns.JobUpdater
	logger *logging.Logger
}

// Handle processes one SQS batch. Undeliverable records are reported back so
// SQS retries only the failed ones.
func (h *handler) Handle(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, record := range evt.Records {
		var payload sendPayload
		if err := json.Unmarshal([]byte(record.Body), &payload); err != nil {
			// Poison message: drop it, there is no job to fail.
			h.logger.Error("undecodable queue message dropped", "error", err, "message_id", record.MessageId)
			continue
		}

		err := h.sender.Send(ctx, messaging.OutboundMessage{
			ClientID: payload.ClientID,
			To:       payload.To,
			Body:     payload.Body,
		})
		if err != nil {
			h.logger.Error("campaign send failed", "error", err, "job_id", payload.JobID)
			if h.jobs != nil {
				if jerr := h.jobs.MarkFailed(ctx, payload.JobID, err.Error()); jerr != nil {
					h.logger.Error("failed to mark job failed", "error", jerr, "job_id", payload.JobID)
				}
			}
			if isRetryable(err) {
				resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
					ItemIdentifier: record.MessageId,
				})
			}
			continue
		}

		h.logger.Info("campaign send delivered", "job_id", payload.JobID, "to", payload.To)
		if h.jobs != nil {
			if jerr := h.jobs.MarkCompleted(ctx, payload.JobID); jerr != nil {
				h.logger.Error("failed to mark job completed", "error", jerr, "job_id", payload.JobID)
			}
		}
	}

	return resp, nil
}

func isRetryable(err error) bool {
	return strings.Contains(err.Error(), "status 429") || strings.Contains(err.Error(), "status 5")
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		fmt.Fprintln(os.Stderr, "sms-lambda requires TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")
		os.Exit(1)
	}
	sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)

	var jobs campaigns.JobUpdater
	if cfg.SendJobsTable != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load AWS config: %v\n", err)
			os.Exit(1)
		}
		jobs = campaigns.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.SendJobsTable, logger)
	}

	h := &handler{sender: sender, jobs: jobs, logger: logger}
	lambda.Start(h.Handle)
}
