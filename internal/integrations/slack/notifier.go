package slackbot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"reviewsentiment/internal/domain"
	"reviewsentiment/internal/report"
)

// Notifier posts the run digest to a single channel.
type Notifier struct {
	api       *slack.Client
	channelID string
}

// NewNotifier builds a Slack client for token. apiURL overrides the Slack API
// base URL and is empty outside tests.
func NewNotifier(token, channelID, apiURL string, hc *http.Client) *Notifier {
	opts := []slack.Option{}
	if hc != nil {
		opts = append(opts, slack.OptionHTTPClient(hc))
	}
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Notifier{api: slack.New(token, opts...), channelID: channelID}
}

// PostSummary posts the digest of rep and returns the message timestamp.
func (n *Notifier) PostSummary(ctx context.Context, rep domain.Report) (string, error) {
	text := report.SlackDigest(rep)
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return "", fmt.Errorf("post report digest to %s: %w", n.channelID, err)
	}
	log.Info().Str("channel", n.channelID).Str("ts", ts).Str("run_id", rep.Metadata.RunID).Msg("report digest posted to slack")
	return ts, nil
}
