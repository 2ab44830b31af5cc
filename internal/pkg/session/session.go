package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

var sessionStore *session.Store

// RedisStorage returns fiber storage on the cache server's host using its
// own database number, so sessions never collide with cache keys.
func RedisStorage(db int) *redis.Storage {
	host, port := "localhost", 6379
	opts := cache.GetClient().Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	password := opts.Password
	if password == "" {
		password = env.GetEnv("CACHE_PASSWORD", "")
	}
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Username: opts.Username,
		Password: password,
		Database: db,
	})
}

// NewSessionStore creates the browser session store used by the install and
// account linking flows. Sessions live in Redis database 1.
func NewSessionStore() *session.Store {
	sessionStore = session.New(session.Config{
		Storage:        RedisStorage(1),
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     15 * time.Minute,
		KeyLookup:      "cookie:fyleslack_session",
	})
	return sessionStore
}

// UseStore replaces the store; tests use fiber's in-memory storage.
func UseStore(store *session.Store) {
	sessionStore = store
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// PopSessionValue returns the value and removes it, for one-shot values like
// OAuth state.
func PopSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}
	value, _ := sess.Get(key).(string)
	sess.Delete(key)
	_ = sess.Save()
	return value
}
