package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyAdminEndpoint = "propostas:ratelimit:%s:%s"

// NewClient connects to redis when rate limiting is enabled and returns nil otherwise.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	log.Named("ratelimit").Info("redis configured", zap.String("addr", addr))
	return client, nil
}

// Limiter throttles administrative endpoints per user. A nil Limiter allows everything.
type Limiter struct {
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *metrics.Metrics
}

type LimiterParams struct {
	fx.In

	Config  config.Config
	Client  *redis.Client `optional:"true"`
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

func NewLimiter(p LimiterParams) (*Limiter, error) {
	if p.Client == nil {
		return nil, nil
	}
	if p.Config.RateLimit.Rate <= 0 || p.Config.RateLimit.Burst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}
	return &Limiter{
		bucket:  NewTokenBucket(p.Client),
		rate:    p.Config.RateLimit.Rate,
		burst:   p.Config.RateLimit.Burst,
		log:     p.Log.Named("ratelimit"),
		metrics: p.Metrics,
	}, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for userID on endpoint. Redis failures let the
// request through and are only logged.
func (l *Limiter) Allow(ctx context.Context, userID, endpoint string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}

	key := fmt.Sprintf(keyAdminEndpoint, strings.TrimSpace(endpoint), strings.TrimSpace(userID))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request", zap.String("endpoint", endpoint), zap.Error(err))
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
		return true, 0
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "bucket_empty")
		return false, res.RetryAfter
	}
	l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	return true, 0
}
