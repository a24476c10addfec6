package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	// headerMaxRunes is the Slack limit for plain text in a header block
	headerMaxRunes = 150
	// sectionMaxRunes is the Slack limit for text in a section block
	sectionMaxRunes = 3000
)

// Notifier posts health alerts to a Slack channel
type Notifier struct {
	api       *slack.Client
	channelID string
	apiURL    string
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithAPIURL overrides the Slack API endpoint
func WithAPIURL(url string) Option {
	return func(n *Notifier) {
		n.apiURL = url
	}
}

// New creates a notifier with the provided bot token and destination channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	n := &Notifier{channelID: channelID}
	for _, opt := range opts {
		opt(n)
	}

	var clientOpts []slack.Option
	if n.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(n.apiURL))
	}
	n.api = slack.New(token, clientOpts...)

	return n, nil
}

// NotifyHealthAlert posts a Block Kit message describing alert
func (n *Notifier) NotifyHealthAlert(ctx context.Context, alert model.HealthAlert) error {
	text := alertText(alert)
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(alertBlocks(alert)...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post health alert",
			goerr.V("channelID", n.channelID),
			goerr.V(model.PlantIDKey, alert.PlantID),
		)
	}
	return nil
}

// alertText is the notification fallback shown where blocks are not rendered
func alertText(alert model.HealthAlert) string {
	if alert.PreviousScore != nil {
		return fmt.Sprintf("%s health dropped from %d to %d", alert.PlantName, *alert.PreviousScore, alert.Score)
	}
	return fmt.Sprintf("%s health score is %d", alert.PlantName, alert.Score)
}

func alertBlocks(alert model.HealthAlert) []slack.Block {
	header := slack.NewHeaderBlock(slack.NewTextBlockObject(
		slack.PlainTextType,
		truncateRunes(":potted_plant: "+alertText(alert), headerMaxRunes),
		true, false,
	))

	previous := "-"
	if alert.PreviousScore != nil {
		previous = fmt.Sprintf("%d", *alert.PreviousScore)
	}
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Plant*\n"+alert.PlantName, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Species*\n"+alert.Species, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Health*\n%d", alert.Score), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Previous*\n"+previous, false, false),
	}
	blocks := []slack.Block{
		header,
		slack.NewSectionBlock(nil, fields, nil),
	}

	if summary := strings.TrimSpace(alert.Summary); summary != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateRunes(summary, sectionMaxRunes), false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, "Plant ID: `"+string(alert.PlantID)+"`", false, false),
	))
	return blocks
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
