package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inovacc/drivesign/internal/model"
)

const (
	telegramAPIURL  = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
)

// TelegramSender sends HTML formatted messages through a Telegram bot. The
// endpoint is configurable for self-hosted Bot API servers and requests can
// go through an HTTP(S) proxy.
type TelegramSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewTelegramSender creates a Telegram sender.
func NewTelegramSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &TelegramSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *TelegramSender) Name() string {
	return string(model.ChannelTelegram)
}

// Send delivers msg via sendMessage. Any status other than 200 is a failure.
func (s *TelegramSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "telegram_endpoint", "telegram_bot_token", "telegram_chat_id"); err != nil {
		return err
	}

	client, err := s.httpClient()
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%s/bot%s/sendMessage",
		s.opts.baseURL(s.cfg, "telegram_endpoint", telegramAPIURL), s.cfg.Get("telegram_bot_token"))

	payload := map[string]string{
		"chat_id":    s.cfg.Get("telegram_chat_id"),
		"text":       FormatTelegramHTML(msg),
		"parse_mode": "HTML",
	}

	resp, err := postJSON(ctx, client, s.Name(), target, payload, nil)
	if err != nil {
		return err
	}

	if resp.status != http.StatusOK {
		return rejected(s.Name(), resp, "non-200 response")
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}

	if err := resp.decode(&result); err != nil {
		return rejected(s.Name(), resp, "unexpected response")
	}

	if !result.OK {
		return rejected(s.Name(), resp, result.Description)
	}

	return nil
}

// httpClient returns the injected client or one honoring telegram_proxy with
// the fixed telegram timeout.
func (s *TelegramSender) httpClient() (*http.Client, error) {
	if s.opts.httpClient != nil {
		return s.opts.httpClient, nil
	}

	proxy := s.cfg.Get("telegram_proxy")
	if proxy == "" {
		return &http.Client{Timeout: telegramTimeout}, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil || proxyURL.Host == "" {
		return nil, &ConfigIncompleteError{Channel: s.Name(), Missing: []string{"telegram_proxy (invalid URL)"}}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)

	return &http.Client{Transport: transport, Timeout: telegramTimeout}, nil
}
