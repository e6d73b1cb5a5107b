package notify

import (
	"context"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/inovacc/drivesign/internal/model"
)

// mailDialer is the part of *gomail.Dialer the smtp channel uses.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender emails the notification.
type SMTPSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewSMTPSender creates an email sender.
func NewSMTPSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &SMTPSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *SMTPSender) Name() string {
	return string(model.ChannelSMTP)
}

// Send emails msg to every address in smtp_receiver.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg,
		"smtp_host", "smtp_port", "smtp_user", "smtp_password", "smtp_sender", "smtp_receiver"); err != nil {
		return err
	}

	port, err := strconv.Atoi(s.cfg.Get("smtp_port"))
	if err != nil || port <= 0 {
		return &ConfigIncompleteError{Channel: s.Name(), Missing: []string{"smtp_port (invalid number)"}}
	}

	if err := ctx.Err(); err != nil {
		return &DeliveryError{Channel: s.Name(), Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Get("smtp_sender"))
	m.SetHeader("To", model.SplitTokens(s.cfg.Get("smtp_receiver"))...)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/plain", msg.Body)

	dialer := s.opts.dialer
	if dialer == nil {
		d := gomail.NewDialer(s.cfg.Get("smtp_host"), port, s.cfg.Get("smtp_user"), s.cfg.Get("smtp_password"))
		d.SSL = parseTLS(s.cfg.Get("smtp_tls"))
		dialer = d
	}

	if err := dialer.DialAndSend(m); err != nil {
		return &DeliveryError{Channel: s.Name(), Err: err}
	}

	return nil
}

// parseTLS reports whether smtp_tls asks for implicit TLS. Without it the
// dialer still upgrades with STARTTLS when the server offers it.
func parseTLS(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "ssl", "tls":
		return true
	default:
		return false
	}
}
