package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/slackapp"
)

// MessageRef points at the Slack message holding the Approve button.
type MessageRef struct {
	Channel   string
	Timestamp string
	Blocks    []slack.Block
}

// Request is one click on an Approve button.
type Request struct {
	ReportID       string
	ApproverUserID string // Slack user id of the clicking approver
	TeamID         string
	Message        MessageRef
}

// Executor approves reports and keeps the originating message in sync.
type Executor struct {
	teams repository.TeamRepository
	users repository.UserRepository
	fyle  fyle.Connector
	slack slackapp.Factory
}

func NewExecutor(teams repository.TeamRepository, users repository.UserRepository, connector fyle.Connector, factory slackapp.Factory) *Executor {
	return &Executor{teams: teams, users: users, fyle: connector, slack: factory}
}

// ErrNoSlackClient means the team's bot token could not be used, so the
// approval message cannot be updated at all.
var ErrNoSlackClient = errors.New("approval: no slack client for team")

// Execute runs one approval attempt. Once a Slack client exists every path
// moves the message out of the in-flight state. A missing team, approver or
// Fyle link is returned as an error wrapping repository.ErrNotFound, and an
// unusable bot token wraps ErrNoSlackClient; neither is worth retrying.
// Fyle and Slack failures end in a message state the user can act on, never
// in a retry.
func (e *Executor) Execute(ctx context.Context, req Request) error {
	team, err := e.teams.GetByID(ctx, req.TeamID)
	if err != nil {
		return fmt.Errorf("team %s: %w", req.TeamID, err)
	}
	messenger, err := e.slack.ForTeam(team)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoSlackClient, team.ID, err)
	}

	user, err := e.users.GetBySlackID(ctx, req.ApproverUserID)
	if err != nil {
		log.Errorf("[Approval] Loading approver %s failed: %v", req.ApproverUserID, err)
		e.fail(ctx, messenger, req)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("approver %s: %w", req.ApproverUserID, err)
		}
		return nil
	}
	if !user.IsFyleLinked() {
		e.relink(ctx, messenger, req)
		return fmt.Errorf("approver %s has not linked fyle: %w", req.ApproverUserID, repository.ErrNotFound)
	}
	api, err := e.fyle.ForUser(ctx, user)
	if err != nil {
		log.Errorf("[Approval] Fyle client for %s failed: %v", req.ApproverUserID, err)
		e.relink(ctx, messenger, req)
		return nil
	}

	report, decision, err := Resolve(ctx, api, req.ReportID, user.FyleUserID)
	if err != nil {
		log.Errorf("[Approval] Fetch report %s failed: %v", req.ReportID, err)
		e.failOrRelink(ctx, messenger, req, err)
		return nil
	}
	if !decision.CanApprove {
		log.Infof("[Approval] Report %s not approvable by %s: %s", req.ReportID, req.ApproverUserID, decision.Reason)
		e.update(ctx, messenger, req, blocks.ApprovalTerminal(req.Message.Blocks, decision.Reason))
		return nil
	}

	if _, err := api.ApproveReport(ctx, req.ReportID); err != nil {
		log.Errorf("[Approval] Approve report %s by %s failed: %v", req.ReportID, req.ApproverUserID, err)
		e.failOrRelink(ctx, messenger, req, err)
		return nil
	}

	if updated, err := api.GetReport(ctx, req.ReportID); err == nil {
		report = updated
	} else {
		log.Warnf("[Approval] Re-fetch of approved report %s failed: %v", req.ReportID, err)
	}
	e.update(ctx, messenger, req, blocks.ReportApproved(report, true))
	log.Infof("[Approval] Report %s approved by %s", req.ReportID, req.ApproverUserID)
	return nil
}

func (e *Executor) failOrRelink(ctx context.Context, m slackapp.Messenger, req Request, err error) {
	if errors.Is(err, fyle.ErrUnauthorized) {
		e.relink(ctx, m, req)
		return
	}
	e.fail(ctx, m, req)
}

// relink restores the Approve button and asks the approver to connect Fyle.
func (e *Executor) relink(ctx context.Context, m slackapp.Messenger, req Request) {
	e.update(ctx, m, req, blocks.RestoreApproveButton(req.Message.Blocks, req.ReportID))
	if _, err := m.PostThreadReply(ctx, req.Message.Channel, req.Message.Timestamp, blocks.ApprovalLinkReply()); err != nil {
		log.Errorf("[Approval] Posting link reply for %s failed: %v", req.ReportID, err)
	}
}

// fail restores the Approve button and explains the failure in the thread.
func (e *Executor) fail(ctx context.Context, m slackapp.Messenger, req Request) {
	e.update(ctx, m, req, blocks.RestoreApproveButton(req.Message.Blocks, req.ReportID))
	if _, err := m.PostThreadReply(ctx, req.Message.Channel, req.Message.Timestamp, blocks.ApprovalErrorReply(req.ReportID)); err != nil {
		log.Errorf("[Approval] Posting error reply for %s failed: %v", req.ReportID, err)
	}
}

func (e *Executor) update(ctx context.Context, m slackapp.Messenger, req Request, msg blocks.Message) {
	if err := m.UpdateMessage(ctx, req.Message.Channel, req.Message.Timestamp, msg); err != nil {
		log.Errorf("[Approval] Updating message %s/%s failed: %v", req.Message.Channel, req.Message.Timestamp, err)
	}
}
