package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leadlinehq/leadline/cmd/mainconfig"
	"github.com/leadlinehq/leadline/internal/agents"
	"github.com/leadlinehq/leadline/internal/analytics"
	"github.com/leadlinehq/leadline/internal/api/router"
	"github.com/leadlinehq/leadline/internal/campaigns"
	appconfig "github.com/leadlinehq/leadline/internal/config"
	"github.com/leadlinehq/leadline/internal/leads"
	"github.com/leadlinehq/leadline/internal/messaging"
	"github.com/leadlinehq/leadline/internal/notify"
	"github.com/leadlinehq/leadline/internal/observability/metrics"
	"github.com/leadlinehq/leadline/internal/partners"
	"github.com/leadlinehq/leadline/internal/uploads"
	"github.com/leadlinehq/leadline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingestMetrics := metrics.NewIngestMetrics(nil)

	// Postgres. Without DATABASE_URL everything runs in memory, which is
	// enough for local demos.
	var (
		leadsRepo     leads.Repository
		campaignsRepo campaigns.Repository
		sqlDB         *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)
		campaignsRepo = campaigns.NewPostgresRepository(pool)

		sqlDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open sql connection", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		leadsRepo = leads.NewInMemoryRepository()
		campaignsRepo = campaigns.NewInMemoryRepository()
	}

	// Redis backs the lead list cache and the agent config store.
	var (
		redisClient *redis.Client
		agentsStore *agents.Store
		leadsCache  *leads.Cache
	)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		agentsStore = agents.NewStore(redisClient)
		leadsCache = leads.NewCache(redisClient, cfg.LeadCacheTTL, logger)
	}

	// AWS-backed pieces are all optional; each one degrades to disabled when
	// its config is missing.
	var (
		uploadStore *uploads.Store
		sendQueue   *campaigns.SQSQueue
		memQueue    *campaigns.MemoryQueue
		jobStore    *campaigns.JobStore
		sesClient   *sesv2.Client
	)
	needsAWS := cfg.UploadArchiveBucket != "" || cfg.SendQueueURL != "" || cfg.EmailProvider == "ses"
	if needsAWS {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if cfg.UploadArchiveBucket != "" {
			uploadStore = uploads.NewStore(s3.NewFromConfig(awsCfg), cfg.UploadArchiveBucket, logger)
		}
		if cfg.SendQueueURL != "" && !cfg.UseMemoryQueue {
			sendQueue = campaigns.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.SendQueueURL)
			jobStore = campaigns.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.SendJobsTable, logger)
		}
		if cfg.EmailProvider == "ses" {
			sesClient = sesv2.NewFromConfig(awsCfg)
		}
	}

	// Email notifications for import summaries.
	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "ses":
		emailSender = notify.NewSESSender(sesClient, notify.SESConfig{FromEmail: cfg.SESFromEmail}, logger)
	default:
		emailSender = notify.NewStubEmailSender(logger)
	}
	var notifier *notify.Service
	if agentsStore != nil {
		notifier = notify.NewService(emailSender, agentsStore, logger)
	}

	leadsHandler := leads.NewHandler(leadsRepo, leadsCache, uploadStore, notifier, ingestMetrics, logger, cfg.MaxUploadBytes, cfg.MaxBatchRows)

	// Campaign test sends flow through the queue; with the in-memory queue the
	// worker runs inside this process.
	var campaignsHandler *campaigns.Handler
	if cfg.UseMemoryQueue {
		memQueue = campaigns.NewMemoryQueue(64)
		memJobs := campaigns.NewMemoryJobStore()
		campaignsHandler = campaigns.NewHandler(campaignsRepo, memQueue, memJobs, logger)
		worker := campaigns.NewWorker(memQueue, memJobs, newSender(cfg, logger), ingestMetrics, logger, cfg.WorkerCount)
		go worker.Run(ctx)
	} else if sendQueue != nil {
		campaignsHandler = campaigns.NewHandler(campaignsRepo, sendQueue, jobStore, logger)
	} else {
		campaignsHandler = campaigns.NewHandler(campaignsRepo, nil, nil, logger)
	}

	var agentsHandler *agents.Handler
	if agentsStore != nil {
		agentsHandler = agents.NewHandler(agentsStore, logger)
	}

	var analyticsHandler *analytics.Handler
	var partnersHandler *partners.Handler
	if sqlDB != nil {
		analyticsHandler = analytics.NewHandler(analytics.NewRepository(sqlDB), logger)
		partnersHandler = partners.NewHandler(partners.NewRepository(sqlDB), logger)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		CampaignsHandler:   campaignsHandler,
		AgentsHandler:      agentsHandler,
		AnalyticsHandler:   analyticsHandler,
		PartnersHandler:    partnersHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newSender(cfg *appconfig.Config, logger *logging.Logger) messaging.Sender {
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	logger.Warn("Twilio credentials not set, using stub SMS sender")
	return messaging.NewStubSender(logger)
}
