package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/notification"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/oauth"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/security"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/slackapp"
)

const (
	requestTimeout = 10 * time.Second
	linkStateTTL   = 30 * time.Minute
)

// Sealer encrypts and decrypts tokens stored at rest.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// Counter records webhook and notification totals.
type Counter interface {
	AddOutcome(ctx context.Context, notificationType, outcome string) error
	AddDelivery(ctx context.Context, status string) error
}

// Services are the collaborators shared by all controllers.
type Services struct {
	Repos          *repository.Repositories
	Slack          slackapp.Factory
	Fyle           fyle.Connector
	Linker         fyle.Linker
	Installer      oauth.SlackInstaller
	Queue          jobqueue.Enqueuer
	Dispatcher     *notification.Dispatcher
	Dashboard      cache.Store
	DashboardTTL   time.Duration
	Sealer         Sealer
	Counter        Counter
	ArchiveEnabled bool
	StateSecret    string
	PublicBaseURL  string
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func jsonError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": code})
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, fyle.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, fyle.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, fyle.ErrUnauthorized):
		return fiber.StatusUnauthorized
	}
	var apiErr *fyle.APIError
	if errors.As(err, &apiErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ensureUser returns the stored Slack user, creating it with a full
// preference set on first contact.
func (s *Services) ensureUser(ctx context.Context, teamID, slackUserID string) (*models.User, error) {
	user, err := s.Repos.User.GetBySlackID(ctx, slackUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user = &models.User{SlackUserID: slackUserID, SlackTeamID: teamID}
	if err := s.Repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", slackUserID, err)
	}
	log.Infof("[Slack] Registered user %s of team %s", slackUserID, teamID)
	return user, nil
}

// linkURL starts the Fyle account linking flow for one Slack user.
func (s *Services) linkURL(slackUserID, teamID string) (string, error) {
	state, err := security.GenerateOAuthState(slackUserID, teamID, linkStateTTL, s.StateSecret)
	if err != nil {
		return "", err
	}
	return s.PublicBaseURL + "/fyle/oauth/start?state=" + url.QueryEscape(state), nil
}

// dashboardCounts are the report states shown on the home tab.
var dashboardCounts = []struct {
	label string
	role  string
	state fyle.ReportState
}{
	{"Drafts", "spender", fyle.ReportStateDraft},
	{"Awaiting approval", "spender", fyle.ReportStateApproverPending},
	{"Processing payment", "spender", fyle.ReportStatePaymentProcessing},
	{"Waiting for your approval", "approver", fyle.ReportStateApproverPending},
}

// homeState builds the home tab for user. Counts come from the dashboard
// cache and may be stale; failures only drop the counts.
func (s *Services) homeState(ctx context.Context, user *models.User) blocks.HomeState {
	if !user.IsFyleLinked() {
		link, err := s.linkURL(user.SlackUserID, user.SlackTeamID)
		if err != nil {
			log.Errorf("[Slack] Building link url for %s failed: %v", user.SlackUserID, err)
		}
		return blocks.HomeState{LinkURL: link}
	}

	state := blocks.HomeState{Linked: true, Email: user.Email}
	api, err := s.Fyle.ForUser(ctx, user)
	if err != nil {
		log.Errorf("[Slack] Fyle client for %s failed: %v", user.SlackUserID, err)
		return state
	}
	for _, dc := range dashboardCounts {
		key := fmt.Sprintf("dashboard:%s:%s:%s", user.SlackUserID, dc.role, dc.state)
		role, st := dc.role, dc.state
		n, err := cache.RememberInt(ctx, s.Dashboard, key, s.DashboardTTL, func(ctx context.Context) (int, error) {
			return api.CountReports(ctx, role, st)
		})
		if err != nil {
			log.Warnf("[Slack] Dashboard count %s for %s failed: %v", key, user.SlackUserID, err)
			return blocks.HomeState{Linked: true, Email: user.Email}
		}
		state.Counts = append(state.Counts, blocks.DashboardCount{Label: dc.label, Value: n})
	}
	return state
}

// publishHome renders and publishes the home tab of one user.
func (s *Services) publishHome(ctx context.Context, team *models.Team, user *models.User) error {
	messenger, err := s.Slack.ForTeam(team)
	if err != nil {
		return err
	}
	return messenger.PublishHomeView(ctx, user.SlackUserID, blocks.HomeTab(s.homeState(ctx, user)))
}
