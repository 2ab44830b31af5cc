package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack/slackevents"

	"github.com/fylein/fyle-slack-app-sub000/app/repository"
)

// SlackController serves the Slack Events API, interactivity and slash
// command endpoints. Requests are signature checked by middleware.
type SlackController struct {
	*Services
}

func NewSlackController(s *Services) *SlackController {
	return &SlackController{Services: s}
}

// HandleEvents answers url_verification and reacts to app_home_opened and
// app_uninstalled callbacks. Other events are acknowledged and ignored.
func (sc *SlackController) HandleEvents(c *fiber.Ctx) error {
	body := c.Body()
	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_event")
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_challenge")
		}
		return c.JSON(fiber.Map{"challenge": challenge.Challenge})
	}
	if event.Type != slackevents.CallbackEvent {
		return c.SendStatus(fiber.StatusOK)
	}

	ctx, cancel := requestContext()
	defer cancel()

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppHomeOpenedEvent:
		if ev.Tab != "" && ev.Tab != "home" {
			return c.SendStatus(fiber.StatusOK)
		}
		team, err := sc.Repos.Team.GetByID(ctx, event.TeamID)
		if err != nil {
			log.Warnf("[Slack] app_home_opened for unknown team %s: %v", event.TeamID, err)
			return c.SendStatus(fiber.StatusOK)
		}
		user, err := sc.ensureUser(ctx, team.ID, ev.User)
		if err != nil {
			log.Errorf("[Slack] Loading user %s failed: %v", ev.User, err)
			return c.SendStatus(fiber.StatusOK)
		}
		if err := sc.publishHome(ctx, team, user); err != nil {
			log.Errorf("[Slack] Publishing home for %s failed: %v", ev.User, err)
		}

	case *slackevents.AppUninstalledEvent:
		if err := sc.Repos.Team.Delete(ctx, event.TeamID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("[Slack] Removing team %s failed: %v", event.TeamID, err)
			return jsonError(c, fiber.StatusInternalServerError, "uninstall_failed")
		}
		log.Infof("[Slack] Team %s uninstalled the app", event.TeamID)
	}

	return c.SendStatus(fiber.StatusOK)
}
