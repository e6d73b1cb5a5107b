package notify

import (
	"context"
	"net/url"

	"github.com/inovacc/drivesign/internal/model"
)

const weComWebhookURL = "https://qyapi.weixin.qq.com"

// WeComSender posts to a WeCom group robot identified by a static webhook key.
type WeComSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewWeComSender creates a WeCom group robot sender.
func NewWeComSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &WeComSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *WeComSender) Name() string {
	return string(model.ChannelWeCom)
}

// Send delivers msg as a text message.
func (s *WeComSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "wecom_webhook_key"); err != nil {
		return err
	}

	target := s.opts.baseURL(s.cfg, "wecom_endpoint", weComWebhookURL) +
		"/cgi-bin/webhook/send?key=" + url.QueryEscape(s.cfg.Get("wecom_webhook_key"))

	payload := map[string]any{
		"msgtype": "text",
		"text": map[string]string{
			"content": msg.Title + "\n\n" + msg.Body,
		},
	}

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), target, payload, nil)
	if err != nil {
		return err
	}

	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}

	if err := resp.decode(&result); err != nil || !resp.ok() {
		return rejected(s.Name(), resp, "unexpected response")
	}

	if result.ErrCode != 0 {
		return rejected(s.Name(), resp, result.ErrMsg)
	}

	return nil
}
