package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Workspace install
	app.Get("/slack/install", h.oauth.HandleSlackInstall)
	app.Get("/slack/oauth/callback", h.oauth.HandleSlackInstallCallback)

	// Sign in with Slack, then link Fyle from the browser
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", h.oauth.HandleSignInCallback)

	// Fyle account linking
	app.Get("/fyle/oauth/start", h.oauth.HandleFyleStart)
	app.Get("/fyle/oauth/callback", h.oauth.HandleFyleCallback)

	app.Get("/installed", h.oauth.HandleInstalled)
}
