package config

import (
	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/notify"
)

// Notify holds notification configuration
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
	SlackChannel    string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for build summaries",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("EASY_MINGW_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel overriding the webhook default",
			Destination: &c.SlackChannel,
			Sources:     cli.EnvVars("EASY_MINGW_SLACK_CHANNEL"),
		},
	}
}

// Notifier returns the configured notifier, nil when disabled
func (c *Notify) Notifier() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return notify.NewSlack(c.SlackWebhookURL, c.SlackChannel, nil)
}
