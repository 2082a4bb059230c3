package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/creditgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilFeatureLimiterAllows(t *testing.T) {
	var limiter *FeatureLimiter
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "ai-insights", "user1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	lease, err := limiter.Acquire(context.Background(), "ai-insights", "user1")
	require.NoError(t, err)
	assert.Nil(t, lease)
	assert.NoError(t, limiter.Release(context.Background(), lease))
}

func TestNewFeatureLimiter(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: false}}
	limiter, err := NewFeatureLimiter(cfg, client)
	require.NoError(t, err)
	assert.Nil(t, limiter)

	cfg.RateLimit = config.RateLimitConfig{Enabled: true, FeatureRate: 0, FeatureBurst: 5, LockTTL: time.Second}
	_, err = NewFeatureLimiter(cfg, client)
	assert.Error(t, err)

	cfg.RateLimit = config.RateLimitConfig{Enabled: true, FeatureRate: 1, FeatureBurst: 5}
	_, err = NewFeatureLimiter(cfg, client)
	assert.ErrorIs(t, err, ErrInvalidLockTTL)

	cfg.RateLimit = config.RateLimitConfig{Enabled: true, FeatureRate: 1, FeatureBurst: 5, LockTTL: time.Second}
	limiter, err = NewFeatureLimiter(cfg, client)
	require.NoError(t, err)
	assert.True(t, limiter.Enabled())

	_, err = limiter.Allow(context.Background(), " ", "user1")
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = limiter.Acquire(context.Background(), "ai-insights", "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTokenBucketValidation(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, validateBucket("", 1, 1), ErrEmptyKey)
	assert.ErrorIs(t, validateBucket("k", 0, 1), ErrInvalidRate)
	assert.ErrorIs(t, validateBucket("k", 1, 0), ErrInvalidBurst)
	assert.NoError(t, validateBucket("k", 0.5, 1))
}

func TestBucketResult(t *testing.T) {
	res := bucketResult(true, 3.7, 1000, 2, 5)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
	assert.Equal(t, 5, res.Limit)
	assert.Zero(t, res.RetryAfter)

	res = bucketResult(false, 0.5, 1000, 2, 5)
	assert.False(t, res.Allowed)
	assert.Equal(t, 250*time.Millisecond, res.RetryAfter)
	assert.Equal(t, time.UnixMilli(1000).Add(250*time.Millisecond), res.ResetTime)
}

func TestCasts(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(7), castToInt("7"))
	assert.Equal(t, 0.25, castToFloat("0.25"))
	assert.Equal(t, 2.0, castToFloat(int64(2)))
	assert.Zero(t, castToFloat(nil))
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 5*time.Second, defaultBucketTTL(2, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
}
