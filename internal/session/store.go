package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions between requests.
type Store interface {
	// Create stores a new session with Version set to 1.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a copy of a session. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Session, error)

	// Update writes s back if its Version still matches the stored one, then increments
	// Version and UpdatedAt. Returns ErrVersionConflict or ErrNotFound otherwise.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Close releases any resources.
	Close() error
}

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *slog.Logger
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithTTL sets how long an idle session is kept by the Redis store.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for non-fatal store failures. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// NewStore creates a Store of the given type. The Redis store requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		st := NewRedisStore(cfg.redisClient, cfg.ttl)
		if cfg.logger != nil {
			st.logger = cfg.logger
		}
		return st, nil
	default:
		return nil, ErrInvalidStoreType
	}
}
