package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/root4loot/goutils/log"
)

// getCached returns the cached screenshot for key, or nil on a miss.
func getCached(ctx context.Context, rdb *redis.Client, key string) ([]byte, error) {
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	cached, err := rdb.Get(ctxRedis, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		log.Warnf("Redis read failed: %v", err)
		return nil, err
	}
	return cached, nil
}

// setCached stores a screenshot for ttl, or one minute when ttl is not set.
func setCached(ctx context.Context, rdb *redis.Client, key string, data []byte, ttl time.Duration) {
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = 1 * time.Minute
	}

	if err := rdb.Set(ctxRedis, key, data, ttl).Err(); err != nil {
		log.Warnf("Redis write failed: %v", err)
	}
}
