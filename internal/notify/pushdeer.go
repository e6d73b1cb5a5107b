package notify

import (
	"context"

	"github.com/inovacc/drivesign/internal/model"
)

// PushDeerSender pushes markdown messages to a PushDeer server.
type PushDeerSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewPushDeerSender creates a PushDeer sender. The endpoint is required so
// self-hosted servers work the same way as the public one.
func NewPushDeerSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &PushDeerSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *PushDeerSender) Name() string {
	return string(model.ChannelPushDeer)
}

// Send delivers msg to {endpoint}/message/push.
func (s *PushDeerSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "pushdeer_endpoint", "pushdeer_send_key"); err != nil {
		return err
	}

	target := s.opts.baseURL(s.cfg, "pushdeer_endpoint", "") + "/message/push"

	payload := map[string]string{
		"pushkey": s.cfg.Get("pushdeer_send_key"),
		"type":    "markdown",
		"text":    msg.Title,
		"desp":    FormatMarkdown(msg),
	}

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), target, payload, nil)
	if err != nil {
		return err
	}

	var result struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}

	if err := resp.decode(&result); err != nil || !resp.ok() {
		return rejected(s.Name(), resp, "unexpected response")
	}

	if result.Code != 0 {
		return rejected(s.Name(), resp, result.Error)
	}

	return nil
}
