package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLockClient keeps lock keys in memory and runs the release script's
// compare-and-delete natively.
type memoryLockClient struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newMemoryLockClient() *memoryLockClient {
	return &memoryLockClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return redis.NewBoolResult(false, m.failSet)
	}
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *memoryLockClient) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	return redis.NewDurationResult(m.ttls[key], nil)
}

func (m *memoryLockClient) compareAndDelete(keys []string, args []interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.values, keys[0])
	delete(m.ttls, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func (m *memoryLockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *memoryLockClient) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *memoryLockClient) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *memoryLockClient) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *memoryLockClient) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (m *memoryLockClient) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestFeatureLockPerFeatureAndUser(t *testing.T) {
	client := newMemoryLockClient()
	lock, err := newFeatureLock(client, 2*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	lease, err := lock.acquire(ctx, "ai-insights", "user1")
	require.NoError(t, err)
	assert.Equal(t, "ai-insights", lease.Feature)
	assert.Equal(t, "feature:lock:ai-insights:user:user1", lease.key)
	assert.Equal(t, 2*time.Second, client.ttls[lease.key])

	_, err = lock.acquire(ctx, "ai-insights", "user1")
	require.ErrorIs(t, err, ErrLockHeld)
	var held *LockHeldError
	require.True(t, errors.As(err, &held))
	assert.Equal(t, "user1", held.UserID)
	assert.Equal(t, 2*time.Second, held.RetryAfter)

	other, err := lock.acquire(ctx, "ai-insights", "user2")
	require.NoError(t, err)
	otherFeature, err := lock.acquire(ctx, "lead-gen-agent2", "user1")
	require.NoError(t, err)

	require.NoError(t, lock.releaseLease(ctx, lease))
	again, err := lock.acquire(ctx, "ai-insights", "user1")
	require.NoError(t, err)

	// a stale lease must not release the new holder's lock
	require.NoError(t, lock.releaseLease(ctx, lease))
	_, err = lock.acquire(ctx, "ai-insights", "user1")
	assert.ErrorIs(t, err, ErrLockHeld)

	for _, l := range []*Lease{again, other, otherFeature} {
		require.NoError(t, lock.releaseLease(ctx, l))
	}
	assert.Empty(t, client.values)
	assert.NoError(t, lock.releaseLease(ctx, nil))
}

func TestFeatureLockErrors(t *testing.T) {
	_, err := newFeatureLock(nil, time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = newFeatureLock(newMemoryLockClient(), 0)
	assert.ErrorIs(t, err, ErrInvalidLockTTL)

	client := newMemoryLockClient()
	lock, err := newFeatureLock(client, time.Second)
	require.NoError(t, err)

	_, err = lock.acquire(context.Background(), "", "user1")
	assert.ErrorIs(t, err, ErrEmptyKey)

	client.failSet = errors.New("connection refused")
	_, err = lock.acquire(context.Background(), "ai-insights", "user1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}
