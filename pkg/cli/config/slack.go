package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the health alert destination
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for health alerts)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("PLANTOPS_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives health alerts",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("PLANTOPS_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// IsConfigured reports whether alerts should be posted to Slack
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates the Slack notifier. Returns nil if no bot token is set (alerts are disabled).
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "slack-channel-id is required with slack-bot-token", goerr.V(FieldKey, "slack-channel-id"))
	}

	notifier, err := slack.New(x.botToken, x.channelID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}
	return notifier, nil
}
