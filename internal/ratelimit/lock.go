package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyFeatureUserLock = "feature:lock:%s:user:%s"

// releaseLeaseScript deletes the lock only while it still carries the lease
// token, so an expired lease cannot drop a newer holder's lock.
const releaseLeaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockHeld       = errors.New("feature_lock_held")
	ErrInvalidLockTTL = errors.New("feature lock ttl must be positive")
)

// LockHeldError reports that another request of the same user is running the
// feature. RetryAfter is the remaining ttl of that lock, zero when unknown.
type LockHeldError struct {
	Feature    string
	UserID     string
	RetryAfter time.Duration
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("feature %s already running for user %s", e.Feature, e.UserID)
}

func (e *LockHeldError) Is(target error) bool { return target == ErrLockHeld }

// Lease is a held feature lock.
type Lease struct {
	Feature string
	UserID  string

	key   string
	token string
}

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// featureLock allows one in-flight run of a feature per user.
type featureLock struct {
	client  lockClient
	release *redis.Script
	ttl     time.Duration
}

func newFeatureLock(client lockClient, ttl time.Duration) (*featureLock, error) {
	if client == nil {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		return nil, ErrInvalidLockTTL
	}
	return &featureLock{
		client:  client,
		release: redis.NewScript(releaseLeaseScript),
		ttl:     ttl,
	}, nil
}

func (l *featureLock) acquire(ctx context.Context, feature, userID string) (*Lease, error) {
	key, err := featureKey(keyFeatureUserLock, feature, userID)
	if err != nil {
		return nil, err
	}

	lease := &Lease{Feature: feature, UserID: userID, key: key, token: uuid.NewString()}
	ok, err := l.client.SetNX(ctx, key, lease.token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return lease, nil
	}

	held := &LockHeldError{Feature: feature, UserID: userID}
	if ttl, err := l.client.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		held.RetryAfter = ttl
	}
	return nil, held
}

func (l *featureLock) releaseLease(ctx context.Context, lease *Lease) error {
	if lease == nil || lease.token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{lease.key}, lease.token).Err()
}
