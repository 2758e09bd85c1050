// README: Redis cache of resolved roles keyed by uid, fenced by a per-uid generation.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolved actors. Invalidate bumps the uid's generation, and
// SetIfGeneration refuses a write computed before the latest bump.
type Cache interface {
	Get(ctx context.Context, uid string) (*Actor, error)
	Generation(ctx context.Context, uid string) (int64, error)
	SetIfGeneration(ctx context.Context, actor Actor, gen int64) error
	Invalidate(ctx context.Context, uid string) error
}

// genTTL outlives any in-flight resolution by a wide margin.
const genTTL = 24 * time.Hour

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func capsKey(uid string) string {
	return "vdrop:caps:" + uid
}

func genKey(uid string) string {
	return "vdrop:caps:gen:" + uid
}

// Get returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, uid string) (*Actor, error) {
	raw, err := c.rdb.Get(ctx, capsKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a Actor
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Generation is 0 for a uid that was never invalidated.
func (c *RedisCache) Generation(ctx context.Context, uid string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(uid)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration writes under WATCH; a concurrent Invalidate aborts the
// transaction and the entry is simply not cached.
func (c *RedisCache) SetIfGeneration(ctx context.Context, actor Actor, gen int64) error {
	raw, err := json.Marshal(actor)
	if err != nil {
		return err
	}
	gk := genKey(actor.UserID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, capsKey(actor.UserID), raw, c.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisCache) Invalidate(ctx context.Context, uid string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(uid))
		pipe.Expire(ctx, genKey(uid), genTTL)
		pipe.Del(ctx, capsKey(uid))
		return nil
	})
	return err
}
