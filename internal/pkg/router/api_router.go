package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fylein/fyle-slack-app-sub000/app/controllers"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/middleware"
)

// ApiRouter serves machine-to-machine endpoints called by Fyle.
type ApiRouter struct {
	webhooks *controllers.FyleWebhookController
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	hooks := app.Group("/fyle/webhooks", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("WEBHOOK_RATE_LIMIT", 600),
		Expiration: time.Minute,
	}), middleware.FyleSignature(env.GetEnv("FYLE_WEBHOOK_SECRET", "")))
	hooks.Post("/:team_id", h.webhooks.HandleWebhook)
}

func NewApiRouter(services *controllers.Services) *ApiRouter {
	return &ApiRouter{webhooks: controllers.NewFyleWebhookController(services)}
}
