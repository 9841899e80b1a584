package jobqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecocheck/ecocheck/internal/pkg/cache"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
)

const isolatedJobQueueTestRedisDB = 14

// resolveTestRedis finds a reachable Redis or skips the test.
func resolveTestRedis(t *testing.T) (string, string) {
	t.Helper()

	candidates := []string{
		fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		"cache:6379",
		"localhost:6379",
		"127.0.0.1:6379",
	}
	password := env.GetEnv("CACHE_PASSWORD", "")

	var lastErr error
	seen := map[string]bool{}
	for _, addr := range candidates {
		if seen[addr] {
			continue
		}
		seen[addr] = true

		client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := client.Ping(ctx).Result()
		cancel()
		_ = client.Close()
		if err == nil {
			return addr, password
		}
		lastErr = err
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return "", ""
}

// newIsolatedRedisClient returns a flushed client on a dedicated DB and
// installs it as the shared cache client for the test's duration.
func newIsolatedRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr, password := resolveTestRedis(t)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       isolatedJobQueueTestRedisDB,
	})

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: isolated DB unavailable (%v)", err)
	}

	cache.SetClient(client)
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
		cache.SetClient(nil)
	})

	return client
}

// offlineClient points at a port nothing listens on. Commands fail fast.
func offlineClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func waitForCondition(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
