package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/spendtrack/internal/domain"
)

const keyPrefix = "summary:"

// SummaryCache implements repository.SummaryCache using Redis. Summaries
// are cached per (user, from, to) window; a scan-based invalidation drops
// every window for a user when their expenses change.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a new Redis-backed dashboard summary cache.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
	}
}

func summaryKey(userID, from, to string) string {
	return keyPrefix + userID + ":" + from + ":" + to
}

// Get returns the cached summary for the window, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context, userID, from, to string) (*domain.Summary, error) {
	data, err := c.client.Get(ctx, summaryKey(userID, from, to)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get summary: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}

	return &summary, nil
}

// Set stores a summary for the window with the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, userID, from, to string, summary *domain.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := c.client.Set(ctx, summaryKey(userID, from, to), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set summary: %w", err)
	}

	return nil
}

// Invalidate drops all cached summaries for the user.
func (c *SummaryCache) Invalidate(ctx context.Context, userID string) error {
	pattern := keyPrefix + userID + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del summary %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan summaries: %w", err)
	}

	return nil
}
