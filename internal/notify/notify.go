// Package notify posts one-line summaries to a Slack channel after batch
// saves and scheduled snapshots. Without Slack config every call is a
// no-op; notifications are best-effort and never fail the operation they
// describe.
package notify

import (
	"log"

	"github.com/slack-go/slack"

	"incidentflow/internal/config"
)

type Notifier struct {
	api     *slack.Client
	channel string
}

func NewFromConfig(cfg config.Config) *Notifier {
	if !cfg.SlackConfigured() {
		log.Println("Slack notifications disabled (slack_bot_token not set)")
		return &Notifier{}
	}
	return &Notifier{
		api:     slack.New(cfg.SlackBotToken),
		channel: cfg.SlackChannelID,
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.api != nil
}

// Post sends one message. Failures are logged and swallowed.
func (n *Notifier) Post(message string) {
	if !n.Enabled() {
		return
	}
	if _, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(message, false)); err != nil {
		log.Printf("slack post error: %v", err)
	}
}
