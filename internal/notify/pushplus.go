package notify

import (
	"context"

	"github.com/inovacc/drivesign/internal/model"
)

const pushPlusURL = "http://www.pushplus.plus"

// PushPlusSender pushes through PushPlus using a user token.
type PushPlusSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewPushPlusSender creates a PushPlus sender.
func NewPushPlusSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &PushPlusSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *PushPlusSender) Name() string {
	return string(model.ChannelPushPlus)
}

// Send delivers msg to {endpoint}/send.
func (s *PushPlusSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "pushplus_token"); err != nil {
		return err
	}

	target := s.opts.baseURL(s.cfg, "pushplus_endpoint", pushPlusURL) + "/send"

	payload := map[string]string{
		"token":   s.cfg.Get("pushplus_token"),
		"title":   msg.Title,
		"content": msg.Body,
	}

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), target, payload, nil)
	if err != nil {
		return err
	}

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}

	if err := resp.decode(&result); err != nil || !resp.ok() {
		return rejected(s.Name(), resp, "unexpected response")
	}

	if result.Code != 200 {
		return rejected(s.Name(), resp, result.Msg)
	}

	return nil
}
