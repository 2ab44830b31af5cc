package slackapp

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
)

// DMSender posts to a user's direct message channel with the team's bot,
// opening and remembering the channel on first use.
type DMSender struct {
	factory Factory
	users   repository.UserRepository
}

func NewDMSender(factory Factory, users repository.UserRepository) *DMSender {
	return &DMSender{factory: factory, users: users}
}

func (s *DMSender) SendDM(ctx context.Context, team *models.Team, user *models.User, msg blocks.Message) error {
	m, err := s.factory.ForTeam(team)
	if err != nil {
		return err
	}

	if user.SlackDMChannelID == "" {
		channel, err := m.OpenDM(ctx, user.SlackUserID)
		if err != nil {
			return err
		}
		user.SlackDMChannelID = channel
		if err := s.users.Update(ctx, user); err != nil {
			log.Warnf("[Slack] Could not store DM channel for %s: %v", user.SlackUserID, err)
		}
	}

	_, err = m.PostMessage(ctx, user.SlackDMChannelID, msg)
	return err
}
