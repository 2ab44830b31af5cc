package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

func ephemeral(c *fiber.Ctx, msg blocks.Message) error {
	return c.JSON(slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         msg.Text,
		Blocks:       slack.Blocks{BlockSet: msg.Blocks},
	})
}

// HandleCommand serves "/fyle expense", "/fyle notifications" and help.
func (sc *SlackController) HandleCommand(c *fiber.Ctx) error {
	command := c.FormValue("command", "/fyle")
	teamID := c.FormValue("team_id")
	userID := c.FormValue("user_id")
	triggerID := c.FormValue("trigger_id")
	sub := strings.ToLower(strings.TrimSpace(c.FormValue("text")))

	if sub != "expense" && sub != "notifications" {
		return ephemeral(c, blocks.CommandHelp(command))
	}

	ctx, cancel := requestContext()
	defer cancel()

	team, err := sc.Repos.Team.GetByID(ctx, teamID)
	if err != nil {
		log.Warnf("[Slack] Command from unknown team %s: %v", teamID, err)
		return ephemeral(c, blocks.Message{Text: "This workspace has not installed the Fyle app."})
	}
	user, err := sc.ensureUser(ctx, team.ID, userID)
	if err != nil {
		log.Errorf("[Slack] Loading user %s failed: %v", userID, err)
		return ephemeral(c, blocks.Message{Text: "Something went wrong, please try again."})
	}
	messenger, err := sc.Slack.ForTeam(team)
	if err != nil {
		log.Errorf("[Slack] Client for team %s failed: %v", team.ID, err)
		return ephemeral(c, blocks.Message{Text: "Something went wrong, please try again."})
	}

	switch sub {
	case "expense":
		if !user.IsFyleLinked() {
			link, err := sc.linkURL(user.SlackUserID, team.ID)
			if err != nil {
				log.Errorf("[Slack] Building link url failed: %v", err)
			}
			return ephemeral(c, blocks.LinkPrompt(link))
		}
		view := blocks.ExpenseModal(env.GetEnv("FYLE_DEFAULT_CURRENCY", "USD"), time.Now())
		if err := messenger.OpenModal(ctx, triggerID, view); err != nil {
			log.Errorf("[Slack] Opening expense modal for %s failed: %v", userID, err)
			return ephemeral(c, blocks.Message{Text: "Could not open the expense form, please try again."})
		}
	case "notifications":
		if err := sc.openPreferences(ctx, messenger, user, triggerID); err != nil {
			log.Errorf("[Slack] Opening notification settings for %s failed: %v", userID, err)
			return ephemeral(c, blocks.Message{Text: "Could not open notification settings, please try again."})
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

var preferenceRoles = []models.Role{models.RoleFyler, models.RoleApprover}
