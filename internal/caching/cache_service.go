package caching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "leadbook"

// CacheService holds the small amount of shared state the API keeps outside
// the lead store: revoked session ids and rate-limit counters.
type CacheService interface {
	// Session revocation
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)

	// Rate limiting; the call counts as one hit
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects to redis. A failed ping is logged, not fatal.
func NewRedisCacheService(addr, password string, db int, logger *zap.Logger) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.String("addr", parsedAddr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", parsedAddr))
	}

	return &redisCacheService{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:revoked_session:%s", keyPrefix, sessionID)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:rate_limit:%s", keyPrefix, key)
}

func (r *redisCacheService) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to remember
	}
	return r.client.Set(ctx, sessionKey(sessionID), "revoked", ttl).Err()
}

func (r *redisCacheService) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitKey(key)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}

type noopCacheService struct{}

// NewNoopCacheService is used when no redis address is configured: nothing
// is revoked server-side and nothing is rate limited.
func NewNoopCacheService() CacheService {
	return noopCacheService{}
}

// Disabled reports whether c is the no-redis fallback
func Disabled(c CacheService) bool {
	_, ok := c.(noopCacheService)
	return ok
}

func (noopCacheService) RevokeSession(context.Context, string, time.Duration) error { return nil }

func (noopCacheService) IsSessionRevoked(context.Context, string) (bool, error) { return false, nil }

func (noopCacheService) IsRateLimited(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (noopCacheService) Ping(context.Context) error { return nil }

func (noopCacheService) Close() error { return nil }
