package slackapp

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
)

// Messenger is the Slack Web API surface the app uses.
type Messenger interface {
	PostMessage(ctx context.Context, channel string, msg blocks.Message) (string, error)
	PostThreadReply(ctx context.Context, channel, threadTS string, msg blocks.Message) (string, error)
	UpdateMessage(ctx context.Context, channel, ts string, msg blocks.Message) error
	PublishHomeView(ctx context.Context, userID string, view slack.HomeTabViewRequest) error
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	OpenDM(ctx context.Context, userID string) (string, error)
}

// Opener decrypts tokens stored at rest.
type Opener interface {
	Open(sealed string) (string, error)
}

// Factory returns a Messenger authenticated as a team's bot.
type Factory interface {
	ForTeam(team *models.Team) (Messenger, error)
}

type botFactory struct {
	opener  Opener
	options []slack.Option
}

// NewFactory builds per-team clients from sealed bot tokens.
func NewFactory(opener Opener, options ...slack.Option) Factory {
	return &botFactory{opener: opener, options: options}
}

func (f *botFactory) ForTeam(team *models.Team) (Messenger, error) {
	token, err := f.opener.Open(team.BotAccessToken)
	if err != nil {
		return nil, fmt.Errorf("open bot token for team %s: %w", team.ID, err)
	}
	return &Client{api: slack.New(token, f.options...)}, nil
}

// Client implements Messenger with slack-go.
type Client struct {
	api *slack.Client
}

func NewClient(api *slack.Client) *Client {
	return &Client{api: api}
}

func (c *Client) PostMessage(ctx context.Context, channel string, msg blocks.Message) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(msg.Blocks...),
	)
	return ts, err
}

func (c *Client) PostThreadReply(ctx context.Context, channel, threadTS string, msg blocks.Message) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(msg.Blocks...),
		slack.MsgOptionTS(threadTS),
	)
	return ts, err
}

func (c *Client) UpdateMessage(ctx context.Context, channel, ts string, msg blocks.Message) error {
	_, _, _, err := c.api.UpdateMessageContext(ctx, channel, ts,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(msg.Blocks...),
	)
	return err
}

func (c *Client) PublishHomeView(ctx context.Context, userID string, view slack.HomeTabViewRequest) error {
	_, err := c.api.PublishViewContext(ctx, userID, view, "")
	return err
}

func (c *Client) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	_, err := c.api.OpenViewContext(ctx, triggerID, view)
	return err
}

func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	ch, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}
