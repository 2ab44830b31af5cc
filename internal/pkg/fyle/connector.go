package fyle

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

// ErrNotLinked is returned when a Slack user has not connected Fyle yet.
var ErrNotLinked = errors.New("fyle: account not linked")

// Opener decrypts tokens stored at rest.
type Opener interface {
	Open(sealed string) (string, error)
}

// Connector hands out per-user API clients.
type Connector interface {
	ForUser(ctx context.Context, user *models.User) (API, error)
}

type oauthConnector struct {
	cfg     *oauth2.Config
	baseURL string
	opener  Opener
}

// NewConnector returns a Connector that refreshes access tokens with cfg.
func NewConnector(cfg *oauth2.Config, baseURL string, opener Opener) Connector {
	return &oauthConnector{cfg: cfg, baseURL: baseURL, opener: opener}
}

func (c *oauthConnector) ForUser(ctx context.Context, user *models.User) (API, error) {
	if !user.IsFyleLinked() {
		return nil, ErrNotLinked
	}
	refresh, err := c.opener.Open(user.FyleRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token for %s: %w", user.SlackUserID, err)
	}
	return NewClient(ctx, c.cfg, c.baseURL, refresh), nil
}

// Link is the outcome of a completed Fyle OAuth round trip.
type Link struct {
	RefreshToken string
	Profile      *Profile
}

// Linker runs the account linking OAuth flow.
type Linker interface {
	AuthURL(state string) string
	Link(ctx context.Context, code string) (*Link, error)
}

type oauthLinker struct {
	cfg     *oauth2.Config
	baseURL string
}

func NewLinker(cfg *oauth2.Config, baseURL string) Linker {
	return &oauthLinker{cfg: cfg, baseURL: baseURL}
}

func (l *oauthLinker) AuthURL(state string) string {
	return l.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Link exchanges code and loads the profile the token belongs to.
func (l *oauthLinker) Link(ctx context.Context, code string) (*Link, error) {
	tok, err := l.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange fyle code: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("fyle did not return a refresh token")
	}
	client := newClientFromToken(ctx, l.cfg, l.baseURL, tok)
	profile, err := client.GetMyProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fyle profile: %w", err)
	}
	return &Link{RefreshToken: tok.RefreshToken, Profile: profile}, nil
}
