package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/pkg/logging"
)

// Cache is a short-TTL read-through cache for month availability sets.
// A nil *Cache is valid and disables caching, so callers never branch.
// Keys carry no "today" anchor: an entry written just before midnight can
// outlive the day it was computed on, so readers must re-trim past dates.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache wraps a redis client. Returns nil when the client is nil.
func NewCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func monthKey(calendarID string, year, month int) string {
	return fmt.Sprintf("availability:%s:%04d-%02d", calendarID, year, month+1)
}

// GetMonth returns the cached date set for a calendar month, if present.
func (c *Cache) GetMonth(ctx context.Context, calendarID string, year, month int) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, monthKey(calendarID, year, month)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", "error", err)
		}
		return nil, false
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		c.logger.Warn("availability cache entry corrupt", "error", err)
		return nil, false
	}
	return dates, true
}

// SetMonth stores the date set for a calendar month. Failures are logged
// and swallowed; the cache is an optimization, not a dependency.
func (c *Cache) SetMonth(ctx context.Context, calendarID string, year, month int, dates []string) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, monthKey(calendarID, year, month), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "error", err)
	}
}

// InvalidateDate drops the cached month containing the given date. Booking
// writes call this so a fresh read reflects the new tally immediately.
func (c *Cache) InvalidateDate(ctx context.Context, calendarID, date string) {
	if c == nil {
		return
	}
	parsed, err := time.Parse(calendars.DateLayout, date)
	if err != nil {
		return
	}
	key := monthKey(calendarID, parsed.Year(), int(parsed.Month())-1)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("availability cache invalidate failed", "error", err, "key", key)
	}
}
