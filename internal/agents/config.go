// Package agents holds per-client configuration for the automated follow-up
// agent that works new leads.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadlinehq/leadline/internal/leads"
)

// Config is one client's agent configuration.
type Config struct {
	ClientID string `json:"client_id"`
	// Enabled turns the follow-up agent on for this client.
	Enabled bool `json:"enabled"`
	// Greeting opens every agent conversation. Required when enabled.
	Greeting string `json:"greeting,omitempty"`
	// AfterHoursGreeting is used outside business hours.
	AfterHoursGreeting string `json:"after_hours_greeting,omitempty"`
	// TransferNumber receives calls the agent cannot handle.
	TransferNumber string `json:"transfer_number,omitempty"`
	// NotifyEmail receives import summaries and agent escalations.
	NotifyEmail string `json:"notify_email,omitempty"`
	// FollowUpDelayMinutes is how long the agent waits before contacting a
	// fresh lead.
	FollowUpDelayMinutes int       `json:"follow_up_delay_minutes"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultConfig returns the disabled starting configuration.
func DefaultConfig(clientID string) *Config {
	return &Config{
		ClientID:             clientID,
		Enabled:              false,
		FollowUpDelayMinutes: 15,
	}
}

// Validate returns human-readable problems with the configuration. An empty
// slice means the config is acceptable.
func (c *Config) Validate() []string {
	var errs []string
	if c.Enabled && c.Greeting == "" {
		errs = append(errs, "Greeting is required when the agent is enabled")
	}
	if c.TransferNumber != "" {
		if res := leads.ValidatePhone(c.TransferNumber); !res.Valid {
			errs = append(errs, res.Errors...)
		}
	}
	if c.NotifyEmail != "" {
		if res := leads.ValidateEmail(c.NotifyEmail); !res.Valid {
			errs = append(errs, res.Errors...)
		}
	}
	if c.FollowUpDelayMinutes < 0 {
		errs = append(errs, "Follow-up delay cannot be negative")
	}
	return errs
}

// Store provides persistence for agent configurations.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new agent config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clientID string) string {
	return fmt.Sprintf("leadline:agent:config:%s", clientID)
}

// Get retrieves a client's agent config, returning the default if none is
// stored.
func (s *Store) Get(ctx context.Context, clientID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(clientID)).Bytes()
	if err == redis.Nil {
		return DefaultConfig(clientID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("agents: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("agents: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Set saves a client's agent config.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	cfg.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("agents: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.ClientID), data, 0).Err(); err != nil {
		return fmt.Errorf("agents: set config: %w", err)
	}
	return nil
}

// RecipientFor satisfies notify.RecipientResolver: import summaries go to the
// client's configured notify address.
func (s *Store) RecipientFor(ctx context.Context, clientID string) (string, error) {
	cfg, err := s.Get(ctx, clientID)
	if err != nil {
		return "", err
	}
	if cfg.NotifyEmail == "" {
		return "", fmt.Errorf("agents: no notify email configured for %s", clientID)
	}
	return cfg.NotifyEmail, nil
}
