package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

// Slack posts build summaries to an incoming webhook
type Slack struct {
	webhookURL string
	channel    string
	httpClient *http.Client
}

// NewSlack creates a notifier. channel overrides the webhook default when set.
func NewSlack(webhookURL, channel string, httpClient *http.Client) *Slack {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Slack{webhookURL: webhookURL, channel: channel, httpClient: httpClient}
}

// Notify sends the summary of report
func (s *Slack) Notify(ctx context.Context, report *model.BuildReport) error {
	msg := Message(report)
	msg.Channel = s.channel

	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification", goerr.V("build_id", report.ID))
	}
	return nil
}

// Message renders report as a webhook message with one attachment per architecture
func Message(report *model.BuildReport) *slack.WebhookMessage {
	failed := len(report.Failed())
	status := "succeeded"
	if failed > 0 {
		status = fmt.Sprintf("finished with %d failed architecture(s)", failed)
	}

	msg := &slack.WebhookMessage{
		Username: types.ServiceName,
		Text:     fmt.Sprintf("Build `%s` from %s %s", report.BuildTag, report.Release, status),
	}

	for _, r := range report.Results {
		att := slack.Attachment{
			Title: r.Arch,
			Color: "good",
		}
		if !r.Succeeded() {
			att.Color = "danger"
			att.Text = r.Error
		} else {
			att.Fields = append(att.Fields, slack.AttachmentField{Title: "Asset", Value: r.Asset})
			var lines []string
			for _, d := range r.Digests {
				lines = append(lines, d.Algorithm+": "+d.Value)
			}
			if len(lines) > 0 {
				att.Fields = append(att.Fields, slack.AttachmentField{Title: "Hashes", Value: "```" + strings.Join(lines, "\n") + "```"})
			}
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	return msg
}
