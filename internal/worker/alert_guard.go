package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/persistence"
)

// AlertGuard suppresses repeated breach alerts. Claim reports true the first
// time key is seen within ttl.
type AlertGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryAlertGuard keeps claims in process.
type MemoryAlertGuard struct {
	mu     sync.Mutex
	now    func() time.Time
	claims map[string]time.Time
}

// NewMemoryAlertGuard builds a guard. A nil clock uses time.Now.
func NewMemoryAlertGuard(now func() time.Time) *MemoryAlertGuard {
	if now == nil {
		now = time.Now
	}
	return &MemoryAlertGuard{now: now, claims: make(map[string]time.Time)}
}

// Claim implements AlertGuard.
func (g *MemoryAlertGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, expires := range g.claims {
		if !now.Before(expires) {
			delete(g.claims, k)
		}
	}
	if _, held := g.claims[key]; held {
		return false, nil
	}
	g.claims[key] = now.Add(ttl)
	return true, nil
}

// RedisAlertGuard shares claims across replicas through Redis. When Redis
// fails it degrades to the in-process guard.
type RedisAlertGuard struct {
	redis    *persistence.Redis
	fallback *MemoryAlertGuard
	logger   *zap.Logger
}

// NewRedisAlertGuard wraps the Redis client.
func NewRedisAlertGuard(redis *persistence.Redis, logger *zap.Logger) *RedisAlertGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisAlertGuard{redis: redis, fallback: NewMemoryAlertGuard(nil), logger: logger}
}

// Claim implements AlertGuard.
func (g *RedisAlertGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.redis.ClaimOnce(ctx, g.redis.Key("sla", key), ttl)
	if err != nil {
		g.logger.Warn("redis alert claim failed, using local guard", zap.String("key", key), zap.Error(err))
		return g.fallback.Claim(ctx, key, ttl)
	}
	return ok, nil
}
