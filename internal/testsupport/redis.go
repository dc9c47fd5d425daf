package testsupport

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	redisclient "sentimenttracker/internal/adapters/redis"
)

// NewRedisClient connects to the integration Redis and flushes its database
// before and after the test.
func NewRedisClient(t *testing.T) *redisclient.Client {
	t.Helper()
	cfg := RequireRedis(t)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})

	return redisclient.NewFromRedis(rdb)
}
