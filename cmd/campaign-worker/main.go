package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/leadlinehq/leadline/cmd/mainconfig"
	"github.com/leadlinehq/leadline/internal/campaigns"
	appconfig "github.com/leadlinehq/leadline/internal/config"
	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/internal/observability/metrics"
	"github.com/leadlinehq/leadline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SendQueueURL == "" {
		logger.Error("campaign worker requires SEND_QUEUE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := campaigns.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.SendQueueURL)
	jobs := campaigns.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.SendJobsTable, logger)

	var sender messaging.Sender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender = messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Warn("Twilio credentials not set, using stub SMS sender")
		sender = messaging.NewStubSender(logger)
	}

	worker := campaigns.NewWorker(queue, jobs, sender, metrics.NewIngestMetrics(nil), logger, cfg.WorkerCount)

	logger.Info("campaign worker started", "workers", cfg.WorkerCount, "queue", cfg.SendQueueURL)
	go worker.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("campaign worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
