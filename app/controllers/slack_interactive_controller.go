package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/approval"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/slackapp"
)

// HandleInteractive dispatches block actions and view submissions. Slack
// only waits three seconds, so approvals are handed to the job queue.
func (sc *SlackController) HandleInteractive(c *fiber.Ctx) error {
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(c.FormValue("payload")), &cb); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
	}

	ctx, cancel := requestContext()
	defer cancel()

	team, err := sc.Repos.Team.GetByID(ctx, cb.Team.ID)
	if err != nil {
		log.Warnf("[Slack] Interaction from unknown team %s: %v", cb.Team.ID, err)
		return c.SendStatus(fiber.StatusOK)
	}
	messenger, err := sc.Slack.ForTeam(team)
	if err != nil {
		log.Errorf("[Slack] Client for team %s failed: %v", team.ID, err)
		return c.SendStatus(fiber.StatusOK)
	}

	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		for _, action := range cb.ActionCallback.BlockActions {
			sc.handleBlockAction(ctx, c, messenger, team, &cb, action)
		}
		return c.SendStatus(fiber.StatusOK)
	case slack.InteractionTypeViewSubmission:
		if cb.View.CallbackID == blocks.CallbackExpenseModal {
			return sc.handleExpenseSubmission(ctx, c, messenger, team, &cb)
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

func (sc *SlackController) handleBlockAction(ctx context.Context, c *fiber.Ctx, m slackapp.Messenger, team *models.Team, cb *slack.InteractionCallback, action *slack.BlockAction) {
	switch action.ActionID {
	case blocks.ActionApproveReport:
		sc.startApproval(ctx, m, team, cb, action.Value)

	case blocks.ActionOpenPreferences:
		user, err := sc.ensureUser(ctx, team.ID, cb.User.ID)
		if err == nil {
			err = sc.openPreferences(ctx, m, user, cb.TriggerID)
		}
		if err != nil {
			log.Errorf("[Slack] Opening notification settings for %s failed: %v", cb.User.ID, err)
		}

	case blocks.ActionPreferenceToggle:
		if err := sc.togglePreferences(ctx, cb.User.ID, action); err != nil {
			log.Errorf("[Slack] Saving notification settings for %s failed: %v", cb.User.ID, err)
		}

	case blocks.ActionOpenExpenseModal:
		user, err := sc.ensureUser(ctx, team.ID, cb.User.ID)
		if err != nil {
			log.Errorf("[Slack] Loading user %s failed: %v", cb.User.ID, err)
			return
		}
		if !user.IsFyleLinked() {
			sc.sendLinkPrompt(ctx, m, user)
			return
		}
		view := blocks.ExpenseModal(env.GetEnv("FYLE_DEFAULT_CURRENCY", "USD"), time.Now())
		if err := m.OpenModal(ctx, cb.TriggerID, view); err != nil {
			log.Errorf("[Slack] Opening expense modal for %s failed: %v", cb.User.ID, err)
		}

	default:
		// approve_report_in_flight, link and deep-link buttons only need an ack.
	}
}

// startApproval swaps the Approve button for a loading state and queues the
// approval. If the job cannot be queued the button comes back.
func (sc *SlackController) startApproval(ctx context.Context, m slackapp.Messenger, team *models.Team, cb *slack.InteractionCallback, reportID string) {
	req := approval.Request{
		ReportID:       reportID,
		ApproverUserID: cb.User.ID,
		TeamID:         team.ID,
		Message: approval.MessageRef{
			Channel:   cb.Container.ChannelID,
			Timestamp: cb.Container.MessageTs,
			Blocks:    cb.Message.Blocks.BlockSet,
		},
	}
	if req.Message.Channel == "" {
		req.Message.Channel = cb.Channel.ID
	}

	if err := m.UpdateMessage(ctx, req.Message.Channel, req.Message.Timestamp, blocks.ApprovalInFlight(req.Message.Blocks, reportID)); err != nil {
		log.Warnf("[Approval] Showing in-flight state for %s failed: %v", reportID, err)
	}
	if _, err := jobqueue.EnqueueReportApproval(sc.Queue, req); err != nil {
		log.Errorf("[Approval] %v", err)
		if err := m.UpdateMessage(ctx, req.Message.Channel, req.Message.Timestamp, blocks.RestoreApproveButton(req.Message.Blocks, reportID)); err != nil {
			log.Errorf("[Approval] Restoring approve button for %s failed: %v", reportID, err)
		}
		if _, err := m.PostThreadReply(ctx, req.Message.Channel, req.Message.Timestamp, blocks.ApprovalErrorReply(reportID)); err != nil {
			log.Errorf("[Approval] Posting error reply for %s failed: %v", reportID, err)
		}
		return
	}
	log.Infof("[Approval] Queued approval of report %s by %s", reportID, cb.User.ID)
}

func (sc *SlackController) sendLinkPrompt(ctx context.Context, m slackapp.Messenger, user *models.User) {
	link, err := sc.linkURL(user.SlackUserID, user.SlackTeamID)
	if err != nil {
		log.Errorf("[Slack] Building link url failed: %v", err)
		return
	}
	channel, err := m.OpenDM(ctx, user.SlackUserID)
	if err == nil {
		_, err = m.PostMessage(ctx, channel, blocks.LinkPrompt(link))
	}
	if err != nil {
		log.Errorf("[Slack] Sending link prompt to %s failed: %v", user.SlackUserID, err)
	}
}

func (sc *SlackController) openPreferences(ctx context.Context, m slackapp.Messenger, user *models.User, triggerID string) error {
	prefs, err := sc.Repos.Preference.ListByUser(ctx, user.SlackUserID)
	if err != nil {
		return err
	}
	return m.OpenModal(ctx, triggerID, blocks.NotificationSettingsModal(prefs, preferenceRoles))
}

// togglePreferences applies a checkbox group change. Slack sends the full
// selection of the group, so every option of the group's role is written.
func (sc *SlackController) togglePreferences(ctx context.Context, slackUserID string, action *slack.BlockAction) error {
	role := models.RoleFyler
	if action.BlockID == blocks.PreferenceBlockID(models.RoleApprover) {
		role = models.RoleApprover
	}
	selected := make(map[string]bool, len(action.SelectedOptions))
	for _, opt := range action.SelectedOptions {
		selected[opt.Value] = true
	}

	prefs, err := sc.Repos.Preference.ListByUser(ctx, slackUserID)
	if err != nil {
		return err
	}
	for _, p := range prefs {
		info, ok := models.LookupNotificationType(p.NotificationType)
		if !ok || info.Role != role || p.IsEnabled == selected[p.NotificationType] {
			continue
		}
		if err := sc.Repos.Preference.SetEnabled(ctx, slackUserID, p.NotificationType, selected[p.NotificationType]); err != nil {
			return err
		}
		log.Infof("[Slack] %s set %s enabled=%t", slackUserID, p.NotificationType, selected[p.NotificationType])
	}
	return nil
}

func (sc *SlackController) handleExpenseSubmission(ctx context.Context, c *fiber.Ctx, m slackapp.Messenger, team *models.Team, cb *slack.InteractionCallback) error {
	var values map[string]map[string]slack.BlockAction
	if cb.View.State != nil {
		values = cb.View.State.Values
	}
	expense, fieldErrs := blocks.ParseExpenseSubmission(values)
	if fieldErrs != nil {
		return c.JSON(slack.NewErrorsViewSubmissionResponse(fieldErrs))
	}

	user, err := sc.Repos.User.GetBySlackID(ctx, cb.User.ID)
	if err != nil {
		log.Errorf("[Slack] Expense submission from unknown user %s: %v", cb.User.ID, err)
		return c.JSON(slack.NewErrorsViewSubmissionResponse(map[string]string{
			blocks.ExpenseAmountBlock: "Link your Fyle account first.",
		}))
	}
	api, err := sc.Fyle.ForUser(ctx, user)
	if err != nil {
		return c.JSON(slack.NewErrorsViewSubmissionResponse(map[string]string{
			blocks.ExpenseAmountBlock: "Link your Fyle account first.",
		}))
	}
	created, err := api.CreateExpense(ctx, expense)
	if err != nil {
		log.Errorf("[Slack] Creating expense for %s failed: %v", cb.User.ID, err)
		return c.JSON(slack.NewErrorsViewSubmissionResponse(map[string]string{
			blocks.ExpenseAmountBlock: "Fyle could not create the expense, please try again.",
		}))
	}

	channel, err := m.OpenDM(ctx, user.SlackUserID)
	if err == nil {
		_, err = m.PostMessage(ctx, channel, blocks.ExpenseCreated(created))
	}
	if err != nil {
		log.Warnf("[Slack] Confirming expense %s to %s failed: %v", created.ID, user.SlackUserID, err)
	}
	log.Infof("[Slack] %s created expense %s in team %s", user.SlackUserID, created.ID, team.ID)
	return c.SendStatus(fiber.StatusOK)
}
