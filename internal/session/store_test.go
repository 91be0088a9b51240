package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	st, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	_, err = NewStore(StoreTypeRedis)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewStore("etcd")
	assert.ErrorIs(t, err, ErrInvalidStoreType)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := New()
	require.NoError(t, st.Create(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Append(Text(RoleUser, "not saved"))

	again, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Transcript)
	assert.Equal(t, 1, st.Count())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	st := NewRedisStore(client, time.Minute)
	defer st.Close()

	exerciseStore(t, st)
}

// readOnlyReplica serves GET from a fixed value and rejects EXPIRE, without a server behind it
type readOnlyReplica struct {
	stored string
}

func (h readOnlyReplica) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h readOnlyReplica) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h readOnlyReplica) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch c := cmd.(type) {
		case *redis.StringCmd:
			c.SetVal(h.stored)
			return nil
		case *redis.BoolCmd:
			err := errors.New("READONLY You can't write against a read only replica.")
			c.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func TestRedisStore_LogsFailedTTLRefresh(t *testing.T) {
	s := New()
	s.Version = 3
	data, err := json.Marshal(s)
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(readOnlyReplica{stored: string(data)})

	var logs bytes.Buffer
	st, err := NewStore(StoreTypeRedis,
		WithRedisClient(client),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Get(context.Background(), s.ID)
	require.NoError(t, err, "a failed refresh still returns the session")
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, int64(3), got.Version)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "failed to refresh session ttl")
	assert.Contains(t, logs.String(), s.ID)
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	s := New()
	require.NoError(t, st.Create(ctx, s))
	assert.Equal(t, int64(1), s.Version)
	defer st.Delete(ctx, s.ID)

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	second, err := st.Get(ctx, s.ID)
	require.NoError(t, err)

	first.DisclaimerAccepted = true
	first.Append(Text(RoleUser, "hello"))
	require.NoError(t, st.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Append(Text(RoleUser, "stale"))
	assert.ErrorIs(t, st.Update(ctx, second), ErrVersionConflict)

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.DisclaimerAccepted)
	assert.Equal(t, []Turn{Text(RoleUser, "hello")}, got.Transcript)

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orphan := New()
	orphan.Version = 1
	assert.ErrorIs(t, st.Update(ctx, orphan), ErrNotFound)
}
