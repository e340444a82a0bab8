package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

const keyPrefix = "geo:metrics:"

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisMetrics implements metrics.Cache: one JSON value for the latest
// snapshot and a capped list for the history, newest first.
type RedisMetrics struct {
	client     *redis.Client
	ttl        time.Duration
	maxHistory int
}

func NewRedisMetrics(client *redis.Client, ttl time.Duration, maxHistory int) *RedisMetrics {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &RedisMetrics{client: client, ttl: ttl, maxHistory: maxHistory}
}

func latestKey(qsid string) string  { return keyPrefix + qsid + ":latest" }
func historyKey(qsid string) string { return keyPrefix + qsid + ":history" }

func (c *RedisMetrics) Latest(ctx context.Context, qsid string) (*metrics.Snapshot, error) {
	raw, err := c.client.Get(ctx, latestKey(qsid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	var s metrics.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &s, nil
}

// Put stores s as latest. It is appended to the history only when it is a
// different snapshot from the current latest.
func (c *RedisMetrics) Put(ctx context.Context, s *metrics.Snapshot) error {
	if s == nil || s.PromptQuestionID == "" {
		return errMissingKey
	}
	prev, err := c.Latest(ctx, s.PromptQuestionID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, latestKey(s.PromptQuestionID), raw, c.ttl)
	if !sameSnapshot(prev, s) {
		hk := historyKey(s.PromptQuestionID)
		pipe.LPush(ctx, hk, raw)
		pipe.LTrim(ctx, hk, 0, int64(c.maxHistory-1))
		if c.ttl > 0 {
			pipe.Expire(ctx, hk, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

func (c *RedisMetrics) History(ctx context.Context, qsid string, limit int) ([]*metrics.Snapshot, error) {
	if limit <= 0 || limit > c.maxHistory {
		limit = c.maxHistory
	}
	items, err := c.client.LRange(ctx, historyKey(qsid), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	out := make([]*metrics.Snapshot, 0, len(items))
	for _, it := range items {
		var s metrics.Snapshot
		if err := json.Unmarshal([]byte(it), &s); err != nil {
			return nil, fmt.Errorf("decode cached snapshot: %w", err)
		}
		out = append(out, &s)
	}
	return out, nil
}
