package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedChecker remembers grants in Redis for a short TTL. Denials are never cached so a
// newly granted permission applies on the next call.
type CachedChecker struct {
	next   Checker
	client *redis.Client
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewCachedChecker(next Checker, client *redis.Client, ttl time.Duration, log logger.ZapLogger) *CachedChecker {
	return &CachedChecker{next: next, client: client, ttl: ttl, logger: log}
}

func cacheKey(actorID, resource, action string) string {
	return fmt.Sprintf("authz:%s:%s:%s", actorID, resource, action)
}

func (c *CachedChecker) HasPermission(ctx context.Context, actorID, resource, action string) (bool, error) {
	key := cacheKey(actorID, resource, action)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && val == "1":
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("authz cache read failed", zap.String("key", key), zap.Error(err))
	}

	ok, err := c.next.HasPermission(ctx, actorID, resource, action)
	if err != nil || !ok {
		return ok, err
	}

	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.Warn("authz cache write failed", zap.String("key", key), zap.Error(err))
	}
	return true, nil
}
