package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// StatisticsCache keeps the last computed statistics for a short time.
type StatisticsCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewStatisticsCache creates a statistics cache.
func NewStatisticsCache(cache *Cache, ttl time.Duration) *StatisticsCache {
	if ttl <= 0 {
		ttl = TTLStatistics
	}
	return &StatisticsCache{cache: cache, ttl: ttl}
}

type statsRecord struct {
	Day   string                  `json:"day"`
	Stats registration.Statistics `json:"stats"`
}

func (c *StatisticsCache) key() string {
	return c.cache.Key(PrefixStats, "current")
}

// Get returns cached statistics computed for day.
func (c *StatisticsCache) Get(ctx context.Context, day string) (registration.Statistics, bool, error) {
	var rec statsRecord
	err := c.cache.Get(ctx, c.key(), &rec)
	if errors.Is(err, ErrCacheMiss) {
		return registration.Statistics{}, false, nil
	}
	if err != nil {
		return registration.Statistics{}, false, err
	}
	if rec.Day != day {
		return registration.Statistics{}, false, nil
	}
	return rec.Stats, true, nil
}

// Set stores statistics computed for day.
func (c *StatisticsCache) Set(ctx context.Context, day string, s registration.Statistics) error {
	return c.cache.Set(ctx, c.key(), statsRecord{Day: day, Stats: s}, c.ttl)
}

// Invalidate drops cached statistics.
func (c *StatisticsCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, c.key())
}
