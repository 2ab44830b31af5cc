package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/security"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/session"
)

const slackInstallStateSessionKey = "slack_install_state"

// OAuthController runs the Slack install and Fyle account linking flows.
type OAuthController struct {
	*Services
}

func NewOAuthController(s *Services) *OAuthController {
	return &OAuthController{Services: s}
}

func failRedirect(c *fiber.Ctx, message string) error {
	return flash.WithError(c, fiber.Map{"type": "error", "message": message}).Redirect("/installed")
}

func generateInstallState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HandleSlackInstall starts the workspace install.
func (oc *OAuthController) HandleSlackInstall(c *fiber.Ctx) error {
	state, err := generateInstallState()
	if err != nil {
		return failRedirect(c, "Could not start the Slack install")
	}
	if err := session.SetSessionValue(c, slackInstallStateSessionKey, state); err != nil {
		log.Errorf("[OAuth] Saving install state failed: %v", err)
		return failRedirect(c, "Could not start the Slack install")
	}
	return c.Redirect(oc.Installer.AuthURL(state), fiber.StatusSeeOther)
}

// HandleSlackInstallCallback stores the team's bot token and registers the
// installing user with a full preference set.
func (oc *OAuthController) HandleSlackInstallCallback(c *fiber.Ctx) error {
	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		return failRedirect(c, "Slack install was cancelled: "+oauthErr)
	}

	expectedState := session.PopSessionValue(c, slackInstallStateSessionKey)
	gotState := strings.TrimSpace(c.Query("state"))
	if expectedState == "" || gotState == "" || expectedState != gotState {
		return failRedirect(c, "Invalid install state, please start again")
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return failRedirect(c, "Slack did not return an authorization code")
	}

	ctx, cancel := requestContext()
	defer cancel()

	inst, err := oc.Installer.Exchange(ctx, code)
	if err != nil {
		log.Errorf("[OAuth] Slack token exchange failed: %v", err)
		return failRedirect(c, "Slack install failed, please try again")
	}
	sealed, err := oc.Sealer.Seal(inst.BotToken)
	if err != nil {
		log.Errorf("[OAuth] Sealing bot token for %s failed: %v", inst.TeamID, err)
		return failRedirect(c, "Slack install failed, please try again")
	}
	team := &models.Team{ID: inst.TeamID, Name: inst.TeamName, BotUserID: inst.BotUserID, BotAccessToken: sealed}
	if err := team.Validate(); err != nil {
		return failRedirect(c, "Slack returned an incomplete installation")
	}
	if err := oc.Repos.Team.Upsert(ctx, team); err != nil {
		log.Errorf("[OAuth] Storing team %s failed: %v", inst.TeamID, err)
		return failRedirect(c, "Slack install failed, please try again")
	}
	if inst.InstallerUserID != "" {
		if _, err := oc.ensureUser(ctx, team.ID, inst.InstallerUserID); err != nil {
			log.Errorf("[OAuth] Registering installer %s failed: %v", inst.InstallerUserID, err)
		}
	}

	log.Infof("[OAuth] Installed in team %s (%s)", team.ID, team.Name)
	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": "Fyle is now installed in " + team.Name + ". Open the Fyle app in Slack to link your account.",
	}).Redirect("/installed")
}

// HandleSignInCallback identifies a Slack user through "Sign in with Slack"
// and sends them on to link Fyle.
func (oc *OAuthController) HandleSignInCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[OAuth] Slack sign in failed: %v", err)
		return failRedirect(c, "Slack sign in failed")
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := oc.Repos.User.GetBySlackID(ctx, u.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failRedirect(c, "Open the Fyle app in Slack once before linking your account")
		}
		log.Errorf("[OAuth] Loading user %s failed: %v", u.UserID, err)
		return failRedirect(c, "Something went wrong, please try again")
	}
	link, err := oc.linkURL(user.SlackUserID, user.SlackTeamID)
	if err != nil {
		log.Errorf("[OAuth] Building link url failed: %v", err)
		return failRedirect(c, "Something went wrong, please try again")
	}
	return c.Redirect(link, fiber.StatusSeeOther)
}

// HandleFyleStart redirects a signed link from Slack to the Fyle consent page.
func (oc *OAuthController) HandleFyleStart(c *fiber.Ctx) error {
	state := c.Query("state")
	if _, err := security.VerifyOAuthState(state, oc.StateSecret); err != nil {
		return failRedirect(c, "This link has expired, open the Fyle app in Slack for a new one")
	}
	return c.Redirect(oc.Linker.AuthURL(state), fiber.StatusSeeOther)
}

// HandleFyleCallback stores the user's sealed refresh token and Fyle ids,
// then refreshes their home tab.
func (oc *OAuthController) HandleFyleCallback(c *fiber.Ctx) error {
	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		return failRedirect(c, "Fyle linking was cancelled: "+oauthErr)
	}
	claims, err := security.VerifyOAuthState(c.Query("state"), oc.StateSecret)
	if err != nil {
		return failRedirect(c, "Invalid or expired link, please start again from Slack")
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return failRedirect(c, "Fyle did not return an authorization code")
	}

	ctx, cancel := requestContext()
	defer cancel()

	team, err := oc.Repos.Team.GetByID(ctx, claims.SlackTeamID)
	if err != nil {
		return failRedirect(c, "This Slack workspace has not installed Fyle")
	}
	user, err := oc.ensureUser(ctx, team.ID, claims.SlackUserID)
	if err != nil {
		log.Errorf("[OAuth] Loading user %s failed: %v", claims.SlackUserID, err)
		return failRedirect(c, "Something went wrong, please try again")
	}

	link, err := oc.Linker.Link(ctx, code)
	if err != nil {
		log.Errorf("[OAuth] Fyle linking for %s failed: %v", claims.SlackUserID, err)
		return failRedirect(c, "Fyle linking failed, please try again")
	}
	sealed, err := oc.Sealer.Seal(link.RefreshToken)
	if err != nil {
		log.Errorf("[OAuth] Sealing refresh token for %s failed: %v", claims.SlackUserID, err)
		return failRedirect(c, "Fyle linking failed, please try again")
	}

	user.FyleRefreshToken = sealed
	user.FyleUserID = link.Profile.UserID
	user.FyleOrgID = link.Profile.OrgID
	if link.Profile.User.Email != "" {
		user.Email = link.Profile.User.Email
	}
	if err := oc.Repos.User.Update(ctx, user); err != nil {
		log.Errorf("[OAuth] Saving link for %s failed: %v", claims.SlackUserID, err)
		return failRedirect(c, "Fyle linking failed, please try again")
	}
	if err := oc.publishHome(ctx, team, user); err != nil {
		log.Warnf("[OAuth] Refreshing home for %s failed: %v", user.SlackUserID, err)
	}

	log.Infof("[OAuth] Linked %s to Fyle user %s", user.SlackUserID, user.FyleUserID)
	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": "Your Fyle account is linked. You can close this tab and go back to Slack.",
	}).Redirect("/installed")
}

// HandleInstalled renders the landing page with the last flash message.
func (oc *OAuthController) HandleInstalled(c *fiber.Ctx) error {
	return c.Render("installed", fiber.Map{
		"Flash": flash.Get(c),
	})
}
