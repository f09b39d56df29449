package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// Client mirrors the consolidated registry into Redis so services without
// filesystem access can read addresses and ABIs.
type Client struct {
	rdb    *redis.Client
	prefix string
	retry  RetryConfig
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`

	MaxAttempts int `yaml:"max_attempts"` // 0 = DefaultRetryConfig
}

// Enabled reports whether a mirror is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	retry := DefaultRetryConfig
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return &Client{rdb: rdb, prefix: cfg.Prefix, retry: retry}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func addressKey(prefix, entity string) string {
	return fmt.Sprintf("%s:addresses:%s", prefix, entity)
}

func descriptorKey(prefix, entity string) string {
	return fmt.Sprintf("%s:abi:%s", prefix, entity)
}

func runKey(prefix string) string {
	return fmt.Sprintf("%s:last_run", prefix)
}

// PublishAddresses writes the full address map of an entity as a hash.
// Fields are only added or overwritten, matching the file registry merge.
func (c *Client) PublishAddresses(ctx context.Context, entity string, addresses domain.AddressMap) error {
	if len(addresses) == 0 {
		return nil
	}
	values := make(map[string]any, len(addresses))
	for chain, addr := range addresses {
		values[string(chain)] = addr
	}
	err := doWithRetry(ctx, c.retry, func(ctx context.Context) error {
		return c.rdb.HSet(ctx, addressKey(c.prefix, entity), values).Err()
	})
	if err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}
	return nil
}

// PublishDescriptor stores the ABI JSON of an entity.
func (c *Client) PublishDescriptor(ctx context.Context, entity string, descriptor domain.InterfaceDescriptor) error {
	if len(descriptor) == 0 {
		return nil
	}
	err := doWithRetry(ctx, c.retry, func(ctx context.Context) error {
		return c.rdb.Set(ctx, descriptorKey(c.prefix, entity), []byte(descriptor), 0).Err()
	})
	if err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// MarkRun records the id and completion time of the last consolidation.
func (c *Client) MarkRun(ctx context.Context, runID string, at time.Time) error {
	err := doWithRetry(ctx, c.retry, func(ctx context.Context) error {
		return c.rdb.HSet(ctx, runKey(c.prefix), "id", runID, "finished_at", at.Unix()).Err()
	})
	if err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}
	return nil
}
