package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetEx(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisRevoker(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	r := NewRedisRevoker(fake)
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	ttl, ok := fake.keys[revokedKeyPrefix+"jti-1"]
	require.True(t, ok)
	assert.Greater(t, ttl, 59*time.Minute)

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevoker_ExpiredTokenIsNoop(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	r := NewRedisRevoker(fake)

	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, fake.keys)
}

func TestRedisRevoker_Errors(t *testing.T) {
	r := NewRedisRevoker(&fakeRedis{keys: map[string]time.Duration{}, err: errors.New("conn refused")})
	ctx := context.Background()

	assert.ErrorContains(t, r.Revoke(ctx, "a", time.Now().Add(time.Hour)), "conn refused")
	_, err := r.IsRevoked(ctx, "a")
	assert.ErrorContains(t, err, "conn refused")
}

func TestMemoryRevoker(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewMemoryRevoker()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, m.Revoke(ctx, "stale", now.Add(-time.Minute)))

	ok, _ := m.IsRevoked(ctx, "a")
	assert.True(t, ok)
	ok, _ = m.IsRevoked(ctx, "stale")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = m.IsRevoked(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Revoke(ctx, "b", now.Add(time.Minute)))
	assert.Len(t, m.revoked, 1, "expired entries are pruned")
}
