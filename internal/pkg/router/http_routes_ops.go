package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

func (h HttpRouter) registerOpsRoutes(app *fiber.App) {
	app.Get("/health", h.ops.HandleHealth)

	guard := metricsGuard(env.GetEnv("METRICS_USER", "admin"), env.GetEnv("METRICS_PASSWORD", ""), env.IsDev())
	if guard == nil {
		log.Warn("[Router] METRICS_PASSWORD is not set, /metrics is disabled")
		return
	}
	app.Get("/metrics", guard, h.ops.HandleMetrics)
}

// metricsGuard protects /metrics with basic auth. Without a password the
// endpoint is open in dev and not served at all elsewhere (nil handler).
func metricsGuard(user, password string, dev bool) fiber.Handler {
	if password == "" {
		if !dev {
			return nil
		}
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return basicauth.New(basicauth.Config{
		Users: map[string]string{user: password},
	})
}
