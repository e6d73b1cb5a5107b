package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/inovacc/drivesign/internal/model"
)

const serverChanURL = "https://sc.ftqq.com"

// ServerChanSender pushes through ServerChan using a send key.
type ServerChanSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewServerChanSender creates a ServerChan sender.
func NewServerChanSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &ServerChanSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *ServerChanSender) Name() string {
	return string(model.ChannelServerChan)
}

// Send delivers msg as a form post to {endpoint}/{send_key}.send.
func (s *ServerChanSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "serverchan_send_key"); err != nil {
		return err
	}

	target := fmt.Sprintf("%s/%s.send",
		s.opts.baseURL(s.cfg, "serverchan_endpoint", serverChanURL),
		url.PathEscape(s.cfg.Get("serverchan_send_key")))

	form := url.Values{}
	form.Set("text", msg.Title)
	form.Set("desp", msg.Body)

	resp, err := postForm(ctx, s.opts.client(defaultTimeout), s.Name(), target, form)
	if err != nil {
		return err
	}

	if !resp.ok() {
		return rejected(s.Name(), resp, "non-2xx response")
	}

	// The legacy API answers with errno, the current one with code.
	var result struct {
		Code    *int   `json:"code"`
		Errno   *int   `json:"errno"`
		Message string `json:"message"`
		ErrMsg  string `json:"errmsg"`
	}

	if err := resp.decode(&result); err != nil {
		return rejected(s.Name(), resp, "unexpected response")
	}

	if result.Code != nil && *result.Code != 0 {
		return rejected(s.Name(), resp, result.Message)
	}

	if result.Errno != nil && *result.Errno != 0 {
		return rejected(s.Name(), resp, result.ErrMsg)
	}

	return nil
}
