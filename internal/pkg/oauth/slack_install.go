package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/oauth2"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

// BotScopes are requested when a workspace installs the app.
var BotScopes = []string{"chat:write", "commands", "im:write", "im:history", "users:read", "users:read.email"}

var slackV2Endpoint = oauth2.Endpoint{
	AuthURL:  "https://slack.com/oauth/v2/authorize",
	TokenURL: "https://slack.com/api/oauth.v2.access",
}

// Installation is the result of a completed workspace install.
type Installation struct {
	TeamID          string
	TeamName        string
	BotUserID       string
	BotToken        string
	InstallerUserID string
}

// SlackInstaller runs the Slack OAuth v2 install flow.
type SlackInstaller interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Installation, error)
}

type slackInstaller struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

// SlackInstallConfig returns the install OAuth configuration from env.
func SlackInstallConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(env.GetEnv("SLACK_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("SLACK_CLIENT_SECRET", "")),
		RedirectURL:  PublicBaseURL() + "/slack/oauth/callback",
		Endpoint:     slackV2Endpoint,
		// Slack expects bot scopes comma separated.
		Scopes: []string{strings.Join(BotScopes, ",")},
	}
}

func NewSlackInstaller(cfg *oauth2.Config) SlackInstaller {
	return &slackInstaller{cfg: cfg, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (s *slackInstaller) AuthURL(state string) string {
	return s.cfg.AuthCodeURL(state)
}

func (s *slackInstaller) Exchange(ctx context.Context, code string) (*Installation, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return nil, errors.New("slack oauth is not configured")
	}
	resp, err := slack.GetOAuthV2ResponseContext(ctx, s.httpClient, s.cfg.ClientID, s.cfg.ClientSecret, code, s.cfg.RedirectURL)
	if err != nil {
		return nil, err
	}
	if resp.TokenType != "" && resp.TokenType != "bot" {
		return nil, errors.New("slack install did not return a bot token")
	}
	return &Installation{
		TeamID:          resp.Team.ID,
		TeamName:        resp.Team.Name,
		BotUserID:       resp.BotUserID,
		BotToken:        resp.AccessToken,
		InstallerUserID: resp.AuthedUser.ID,
	}, nil
}
