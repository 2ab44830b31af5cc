package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fylein/fyle-slack-app-sub000/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, services *controllers.Services, ops *controllers.OpsController) {
	// HttpRouter first: it initializes the session store and OAuth providers
	// the browser flows depend on.
	setup(app, NewHttpRouter(services, ops), NewApiRouter(services))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
