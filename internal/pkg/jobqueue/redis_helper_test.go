package jobqueue

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

const isolatedJobQueueTestRedisDB = 14

// testRedisAddrs are tried in order; CI sets CACHE_HOST, compose uses "cache".
func testRedisAddrs() []string {
	port := env.GetEnv("CACHE_PORT", "6379")
	var addrs []string
	seen := map[string]bool{}
	for _, host := range []string{env.GetEnv("CACHE_HOST", ""), "cache", "localhost"} {
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		addrs = append(addrs, net.JoinHostPort(host, port))
	}
	return addrs
}

// newIsolatedRedisClient returns a flushed client on db, or skips the test
// when no Redis is reachable.
func newIsolatedRedisClient(t *testing.T, db int) *redis.Client {
	t.Helper()

	var lastErr error
	for _, addr := range testRedisAddrs() {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       db,
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr != nil {
			_ = client.Close()
			continue
		}

		if err := client.FlushDB(context.Background()).Err(); err != nil {
			_ = client.Close()
			t.Fatalf("flush redis db %d: %v", db, err)
		}
		t.Cleanup(func() {
			_ = client.FlushDB(context.Background()).Err()
			_ = client.Close()
		})
		return client
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis (%v)", lastErr)
	return nil
}
