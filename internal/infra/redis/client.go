package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultHistoryTTL = 24 * time.Hour

// Config holds Redis connection configuration.
type Config struct {
	URL        string        `yaml:"url"         envconfig:"URL"`
	Password   string        `yaml:"password"    envconfig:"PASSWORD"`
	HistoryTTL time.Duration `yaml:"history_ttl" envconfig:"HISTORY_TTL"`
}

// Client wraps the Redis operations backing recovery history.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.HistoryTTL
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func historyKey(session string) string {
	return fmt.Sprintf("recovery:%s", session)
}

// History returns a HistoryStore scoped to one session.
func (c *Client) History(session string) *HistoryStore {
	return &HistoryStore{client: c, key: historyKey(session)}
}

// HistoryStore keeps recovery attempt counters in a Redis hash. Every write
// refreshes the hash TTL so an idle session's history expires.
type HistoryStore struct {
	client *Client
	key    string
}

// Increment bumps the counter for signature and returns its previous value.
func (h *HistoryStore) Increment(ctx context.Context, signature string) (int, error) {
	var incr *redis.IntCmd
	_, err := h.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, h.key, signature, 1)
		pipe.Expire(ctx, h.key, h.client.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("hincrby failed: %w", err)
	}
	return int(incr.Val()) - 1, nil
}

func (h *HistoryStore) Reset(ctx context.Context, signature string) error {
	if err := h.client.rdb.HDel(ctx, h.key, signature).Err(); err != nil {
		return fmt.Errorf("hdel failed: %w", err)
	}
	return nil
}

func (h *HistoryStore) Snapshot(ctx context.Context) (map[string]int, error) {
	raw, err := h.client.rdb.HGetAll(ctx, h.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}
	out := make(map[string]int, len(raw))
	for sig, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid counter for %q: %w", sig, err)
		}
		out[sig] = n
	}
	return out, nil
}

func (h *HistoryStore) Clear(ctx context.Context) error {
	return h.client.rdb.Del(ctx, h.key).Err()
}
