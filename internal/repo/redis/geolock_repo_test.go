package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestGeoLockAcquireIsExclusive(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewGeoLockRepo(client)
	ctx := context.Background()
	key := "ramp:40123:20456"

	ok, err := repo.Acquire(ctx, key, 5*time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}

	ok, err = repo.Acquire(ctx, key, 5*time.Second)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatalf("expected second acquire to be rejected while held")
	}

	if err := repo.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = repo.Acquire(ctx, key, 5*time.Second)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if !ok {
		t.Fatalf("expected acquire to succeed after release")
	}
}

func TestGeoLockExpiresWithTTL(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewGeoLockRepo(client)
	ctx := context.Background()
	key := "elevator:40123:20456"

	if ok, err := repo.Acquire(ctx, key, 2*time.Second); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	mr.FastForward(3 * time.Second)

	ok, err := repo.Acquire(ctx, key, 2*time.Second)
	if err != nil {
		t.Fatalf("acquire after ttl: %v", err)
	}
	if !ok {
		t.Fatalf("expected lock to expire with its ttl")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
