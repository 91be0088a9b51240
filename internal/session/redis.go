package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "medlegalchat:session:"
	defaultTTL       = 24 * time.Hour
)

// RedisStore keeps sessions in Redis as JSON, with a TTL refreshed on every access.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a Redis-based session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// Create implements Store.
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(s.ID), val, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	key := r.key(id)
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to refresh session ttl", "session_id", id, "error", err)
	}

	return &s, nil
}

// Update implements Store using WATCH/MULTI/EXEC for the version check.
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	key := r.key(s.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored Session
		if err := json.Unmarshal(val, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if stored.Version != s.Version {
			return ErrVersionConflict
		}

		next := s.Clone()
		next.Version++
		next.UpdatedAt = time.Now()
		newVal, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		s.Version = next.Version
		s.UpdatedAt = next.UpdatedAt
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}
