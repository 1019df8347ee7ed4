package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.SendJobsTable != "send_jobs" {
		t.Errorf("expected default jobs table, got %s", cfg.SendJobsTable)
	}
	if cfg.LeadCacheTTL != 5*time.Minute {
		t.Errorf("expected default cache ttl 5m, got %s", cfg.LeadCacheTTL)
	}
	if cfg.MaxBatchRows != 50000 {
		t.Errorf("expected default max batch rows, got %d", cfg.MaxBatchRows)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_BATCH_ROWS", "100")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("LEAD_CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.leadline.io, https://admin.leadline.io")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.MaxBatchRows != 100 {
		t.Errorf("expected max batch rows 100, got %d", cfg.MaxBatchRows)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.LeadCacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %s", cfg.LeadCacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.leadline.io" {
		t.Errorf("unexpected cors origins: %#v", cfg.CORSOrigins)
	}
}

func TestGetEnvAsIntBadValue(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
}
