package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fylein/fyle-slack-app-sub000/app/controllers"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/oauth"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/session"
)

type HttpRouter struct {
	slack *controllers.SlackController
	oauth *controllers.OAuthController
	ops   *controllers.OpsController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	h.registerPublicRoutes(app)
	h.registerSlackRoutes(app)
	h.registerOpsRoutes(app)
}

func NewHttpRouter(services *controllers.Services, ops *controllers.OpsController) *HttpRouter {
	return &HttpRouter{
		slack: controllers.NewSlackController(services),
		oauth: controllers.NewOAuthController(services),
		ops:   ops,
	}
}
