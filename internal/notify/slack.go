package notify

import (
	"context"

	"github.com/inovacc/drivesign/internal/model"
)

const slackAPIURL = "https://slack.com/api"

// SlackSender sends notifications to Slack via webhook or bot API.
type SlackSender struct {
	webhookURL     string
	botToken       string
	defaultChannel string
	opts           options
}

// NewSlackSender creates a Slack sender from slack_webhook_url, or from
// slack_bot_token plus slack_channel when no webhook is configured.
func NewSlackSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &SlackSender{
		webhookURL:     cfg.Get("slack_webhook_url"),
		botToken:       cfg.Get("slack_bot_token"),
		defaultChannel: cfg.Get("slack_channel"),
		opts:           newOptions(opts),
	}
}

// Name returns the sender name.
func (s *SlackSender) Name() string {
	return string(model.ChannelSlack)
}

// Send sends a notification for the given message.
func (s *SlackSender) Send(ctx context.Context, msg *Message) error {
	slackMsg := FormatSlackMessage(msg)

	if s.webhookURL != "" {
		return s.sendWebhook(ctx, slackMsg)
	}

	if s.botToken != "" && s.defaultChannel != "" {
		return s.sendBotAPI(ctx, slackMsg)
	}

	missing := []string{"slack_webhook_url"}
	if s.botToken != "" {
		missing = []string{"slack_channel"}
	}

	return &ConfigIncompleteError{Channel: s.Name(), Missing: missing}
}

// sendWebhook sends a message via Slack webhook.
func (s *SlackSender) sendWebhook(ctx context.Context, msg *SlackMessage) error {
	target := s.webhookURL
	if s.opts.endpoint != "" {
		target = s.opts.endpoint
	}

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), target, msg, nil)
	if err != nil {
		return err
	}

	if !resp.ok() {
		return rejected(s.Name(), resp, "webhook returned non-2xx")
	}

	return nil
}

// sendBotAPI sends a message via the Slack Bot API.
func (s *SlackSender) sendBotAPI(ctx context.Context, msg *SlackMessage) error {
	payload := struct {
		Channel string `json:"channel"`
		*SlackMessage
	}{
		Channel:      s.defaultChannel,
		SlackMessage: msg,
	}

	target := s.opts.baseURL(nil, "", slackAPIURL) + "/chat.postMessage"

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), target, payload, map[string]string{
		"Authorization": "Bearer " + s.botToken,
	})
	if err != nil {
		return err
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	if err := resp.decode(&result); err != nil {
		return &DeliveryError{Channel: s.Name(), StatusCode: resp.status, Body: string(resp.body), Err: err}
	}

	if !result.OK {
		return rejected(s.Name(), resp, "slack API error: "+result.Error)
	}

	return nil
}
