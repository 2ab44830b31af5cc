package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/middleware"
)

func (h HttpRouter) registerSlackRoutes(app *fiber.App) {
	group := app.Group("/slack", middleware.SlackSignature(env.GetEnv("SLACK_SIGNING_SECRET", "")))
	group.Post("/events", h.slack.HandleEvents)
	group.Post("/interactive", h.slack.HandleInteractive)
	group.Post("/commands", h.slack.HandleCommand)
}
