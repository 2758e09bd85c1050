// README: Redis client initialization for the capability cache.
package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"vdrop/internal/logger"
)

// NewRedis logs a failed ping instead of returning it; callers treat the
// cache as optional.
func NewRedis(ctx context.Context, addr string, log logger.ILogger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warning("redis unreachable; capability cache disabled until it recovers",
			logger.String("addr", addr), logger.Error(err))
	}
	return rdb
}
