package limiter

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"repvote/pkg/redis"
)

// Limiter is a shared request limiter with TTL eviction. It is injected
// rather than kept as a module-level singleton so that multiple server
// instances coordinate through the same store.
type Limiter interface {
	// Record counts one request against key and returns the count in the
	// current window
	Record(ctx context.Context, key string) (int64, error)

	// IsBlocked reports whether key has exhausted its window budget
	IsBlocked(ctx context.Context, key string) (bool, error)

	// Reset clears the counter for key
	Reset(ctx context.Context, key string) error
}

// RedisLimiter counts requests in Redis with a fixed TTL window
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// NewRedisLimiter creates a Redis-backed limiter allowing limit requests
// per window per key
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

func (l *RedisLimiter) key(key string) string {
	return l.client.KeyBuilder.KeyTicketRate(key)
}

func (l *RedisLimiter) Record(ctx context.Context, key string) (int64, error) {
	rateKey := l.key(key)

	count, err := l.client.Incr(ctx, rateKey)
	if err != nil {
		return 0, err
	}

	// First hit opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, rateKey, l.window); err != nil {
			l.logger.Warn("failed to set limiter window expiry", zap.Error(err))
		}
	}

	return count, nil
}

func (l *RedisLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	val, err := l.client.Get(ctx, l.key(key))
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, err
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, nil
	}

	return count >= l.limit, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Delete(ctx, l.key(key))
}

// NoopLimiter allows everything. Used when Redis is not configured.
type NoopLimiter struct{}

func (NoopLimiter) Record(ctx context.Context, key string) (int64, error) { return 0, nil }

func (NoopLimiter) IsBlocked(ctx context.Context, key string) (bool, error) { return false, nil }

func (NoopLimiter) Reset(ctx context.Context, key string) error { return nil }
