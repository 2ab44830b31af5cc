package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// SlackSignature rejects requests not signed with the app's signing secret.
func SlackSignature(signingSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := http.Header{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			header.Add(string(k), string(v))
		})

		sv, err := slack.NewSecretsVerifier(header, signingSecret)
		if err != nil {
			log.Warnf("[Slack] Rejected request to %s: %v", c.Path(), err)
			return unauthorized(c, "invalid slack signature")
		}
		if _, err := sv.Write(c.Body()); err != nil {
			return unauthorized(c, "invalid slack signature")
		}
		if err := sv.Ensure(); err != nil {
			log.Warnf("[Slack] Signature mismatch on %s", c.Path())
			return unauthorized(c, "invalid slack signature")
		}
		return c.Next()
	}
}

// FyleSignature rejects webhooks without a valid X-Fyle-Signature.
func FyleSignature(webhookSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !fyle.VerifyWebhookSignature(c.Body(), c.Get(fyle.WebhookSignatureHeader), webhookSecret) {
			log.Warnf("[Webhook] Signature mismatch on %s", c.Path())
			return unauthorized(c, "invalid webhook signature")
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": message})
}
