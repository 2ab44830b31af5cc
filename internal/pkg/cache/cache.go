package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to Redis: %v", err)
	} else {
		log.Infof("[Cache] Connected to Redis: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// UseClient replaces the shared client; tests point it at an isolated DB.
func UseClient(c *redis.Client) {
	client = c
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// GetInt retrieves an integer value from the cache by key
func GetInt(key string) (int, error) {
	return GetClient().Get(ctx, key).Int()
}

// Delete removes a value from the cache by key
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}

// Store is the subset of cache operations the read-through helpers need.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	Client *redis.Client
}

func (s RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (s RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// RememberInt returns the cached integer for key, or calls load and caches
// its result for ttl. Values may be stale for up to ttl; nothing invalidates
// them early. Cache failures fall through to load.
func RememberInt(ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (int, error)) (int, error) {
	if raw, err := store.Get(ctx, key); err == nil {
		if v, perr := strconv.Atoi(raw); perr == nil {
			return v, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		log.Warnf("[Cache] Get %s failed: %v", key, err)
	}

	v, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if err := store.Set(ctx, key, strconv.Itoa(v), ttl); err != nil {
		log.Warnf("[Cache] Set %s failed: %v", key, err)
	}
	return v, nil
}
