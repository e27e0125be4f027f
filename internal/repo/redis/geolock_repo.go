package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// GeoLockRepo holds short-lived locks keyed by a geo cell so that two
// concurrent submissions for the same feature type and location cannot both
// pass the duplicate check and create separate reports.
type GeoLockRepo struct {
	client *goredis.Client
}

func NewGeoLockRepo(client *goredis.Client) *GeoLockRepo {
	return &GeoLockRepo{client: client}
}

func (r *GeoLockRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return false, fmt.Errorf("invalid geo lock payload")
	}

	ok, err := r.client.SetNX(ctx, lockKey(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire geo lock: %w", err)
	}

	return ok, nil
}

func (r *GeoLockRepo) Release(ctx context.Context, key string) error {
	if r.client == nil || key == "" {
		return nil
	}
	if err := r.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("release geo lock: %w", err)
	}
	return nil
}

func lockKey(key string) string {
	return "geolock:" + key
}
