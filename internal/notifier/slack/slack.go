package slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/notifier"
	"github.com/slack-go/slack"
)

const sendTimeout = 10 * time.Second

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier sends run failure alerts to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NotifyRunFailure posts an alert describing failure.
func (s *Notifier) NotifyRunFailure(ctx context.Context, failure notifier.RunFailure) error {
	_, _, err := s.sendMessage(ctx, formatRunFailure(failure))
	return err
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionText(fallbackText(message), false),
	)
	if err != nil {
		s.metrics.IncAlertsFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncAlertsSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// formatRunFailure creates the Slack message for a failed run using Block Kit.
func formatRunFailure(failure notifier.RunFailure) slack.Message {
	blocks := make([]slack.Block, 0, 4)

	var title string
	switch failure.State {
	case "connection_failure":
		title = "Stats run could not start"
	case "unexpected_failure":
		title = "Stats run crashed"
	default:
		title = "Stats run partially failed"
	}
	headerText := slack.NewTextBlockObject("plain_text", ":warning: "+title, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*State:*\n%s", failure.State), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Run:*\n`%s`", failure.RunID), false, false),
	}
	if !failure.At.IsZero() {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn",
			fmt.Sprintf("*At:*\n%s", failure.At.UTC().Format(time.RFC3339)), false, false))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	var details strings.Builder
	if len(failure.FailedJobs) > 0 {
		fmt.Fprintf(&details, "*Failed jobs:* %s\n", strings.Join(failure.FailedJobs, ", "))
	}
	if len(failure.FailedWrites) > 0 {
		fmt.Fprintf(&details, "*Stats not written:* %s\n", strings.Join(failure.FailedWrites, ", "))
	}
	if details.Len() > 0 {
		detailText := slack.NewTextBlockObject("mrkdwn", strings.TrimSpace(details.String()), false, false)
		blocks = append(blocks, slack.NewSectionBlock(detailText, nil, nil))
	}

	if failure.Err != nil {
		errText := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("```%s```", failure.Err), false, false)
		blocks = append(blocks, slack.NewContextBlock("", errText))
	}

	return slack.NewBlockMessage(blocks...)
}

// fallbackText is shown in notifications where blocks are not rendered.
func fallbackText(message slack.Message) string {
	for _, block := range message.Blocks.BlockSet {
		if header, ok := block.(*slack.HeaderBlock); ok && header.Text != nil {
			return header.Text.Text
		}
	}
	return "Stats run failed"
}
