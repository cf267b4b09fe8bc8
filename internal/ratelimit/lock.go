package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/propostas/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyOnboardingLock    = "propostas:lock:onboarding:%s"
	defaultOnboardingTTL = 10 * time.Second
)

// Deletes the key only while it still holds the caller's token, so a lock
// that expired and was taken by another request is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	// ErrLocked is returned when another request holds the same lock.
	ErrLocked = errors.New("locked")

	errLockUnconfigured = errors.New("lock client not configured")
	errEmptyLockSubject = errors.New("lock subject is empty")
)

// OnboardingLockKey is the redis key guarding onboarding for userID.
func OnboardingLockKey(userID string) (string, error) {
	subject := strings.TrimSpace(userID)
	if subject == "" {
		return "", errEmptyLockSubject
	}
	return fmt.Sprintf(keyOnboardingLock, subject), nil
}

// KeyedLocker serialises onboarding per user across instances. A nil
// KeyedLocker runs fn directly.
type KeyedLocker struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
	log     *zap.Logger
}

type LockerParams struct {
	fx.In

	Config config.Config
	Client *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func NewKeyedLocker(p LockerParams) *KeyedLocker {
	if p.Client == nil {
		return nil
	}
	ttl := p.Config.RateLimit.LockTTL
	if ttl <= 0 {
		ttl = defaultOnboardingTTL
	}
	return &KeyedLocker{
		client:  p.Client,
		release: redis.NewScript(releaseScript),
		ttl:     ttl,
		log:     p.Log.Named("ratelimit.lock"),
	}
}

// WithOnboardingLock runs fn while holding the onboarding lock for userID.
// It returns ErrLocked when another onboarding for the same user is running.
func (k *KeyedLocker) WithOnboardingLock(ctx context.Context, userID string, fn func() error) error {
	if k == nil {
		return fn()
	}

	key, err := OnboardingLockKey(userID)
	if err != nil {
		return err
	}
	token, err := k.acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("acquire onboarding lock: %w", err)
	}
	if token == "" {
		k.log.Debug("onboarding already running", zap.String("user_id", userID))
		return ErrLocked
	}
	defer k.unlock(context.WithoutCancel(ctx), key, token, userID)
	return fn()
}

// acquire returns an empty token when the key is already held.
func (k *KeyedLocker) acquire(ctx context.Context, key string) (string, error) {
	if k.client == nil {
		return "", errLockUnconfigured
	}
	token := uuid.NewString()
	ok, err := k.client.SetNX(ctx, key, token, k.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (k *KeyedLocker) unlock(ctx context.Context, key, token, userID string) {
	deleted, err := k.release.Run(ctx, k.client, []string{key}, token).Int64()
	if err != nil {
		k.log.Warn("release onboarding lock", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if deleted == 0 {
		k.log.Warn("onboarding outlived its lock", zap.String("user_id", userID), zap.Duration("ttl", k.ttl))
	}
}
