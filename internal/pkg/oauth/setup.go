package oauth

import (
	"strings"
	"time"

	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	gothslack "github.com/markbates/goth/providers/slack"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/session"
)

// PublicBaseURL is the externally reachable root of the app.
func PublicBaseURL() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// Setup registers the "Sign in with Slack" provider used to link Fyle from a
// browser. goth's OAuth state lives in Redis database 2.
func Setup() {
	base := PublicBaseURL()

	goth.UseProviders(
		gothslack.New(
			env.GetEnv("SLACK_CLIENT_ID", ""),
			env.GetEnv("SLACK_CLIENT_SECRET", ""),
			base+"/auth/slack/callback",
			"users:read",
			"users:read.email",
		),
	)

	gothfiber.SessionStore = fibersession.New(fibersession.Config{
		Storage:        session.RedisStorage(2),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     15 * time.Minute,
	})
}
