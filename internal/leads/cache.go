package leads

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadlinehq/leadline/pkg/logging"
)

// Cache keeps each client's lead collection in Redis so the dashboard list
// view does not hit Postgres on every render. Writes invalidate; the next
// read repopulates. A nil *Cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache builds a cache around the provided Redis client. Returns nil when
// the client is nil so callers can wire it unconditionally.
func NewCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) key(clientID string) string {
	return "leadline:leads:" + clientID
}

// Get returns the cached collection and whether it was present. Cache errors
// degrade to a miss.
func (c *Cache) Get(ctx context.Context, clientID string) ([]*Lead, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(clientID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("lead cache read failed", "error", err, "client_id", clientID)
		return nil, false
	}
	var out []*Lead
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn("lead cache decode failed", "error", err, "client_id", clientID)
		return nil, false
	}
	return out, true
}

// Set stores the collection. Failures are logged, never surfaced.
func (c *Cache) Set(ctx context.Context, clientID string, collection []*Lead) {
	if c == nil {
		return
	}
	data, err := json.Marshal(collection)
	if err != nil {
		c.logger.Warn("lead cache encode failed", "error", err, "client_id", clientID)
		return
	}
	if err := c.client.Set(ctx, c.key(clientID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("lead cache write failed", "error", err, "client_id", clientID)
	}
}

// Invalidate drops the client's cached collection after any mutation.
func (c *Cache) Invalidate(ctx context.Context, clientID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(clientID)).Err(); err != nil {
		c.logger.Warn("lead cache invalidate failed", "error", err, "client_id", clientID)
	}
}
