package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inovacc/drivesign/internal/model"
)

var (
	// ErrChannelConfigIncomplete means an enabled channel lacks required credentials.
	ErrChannelConfigIncomplete = errors.New("channel configuration incomplete")

	// ErrChannelDeliveryFailed means the provider could not be reached or rejected the message.
	ErrChannelDeliveryFailed = errors.New("channel delivery failed")

	// ErrUnknownChannel means a channel name has no registered backend.
	ErrUnknownChannel = errors.New("unknown channel")
)

// ConfigIncompleteError lists the credential keys a channel is missing
type ConfigIncompleteError struct {
	Channel string
	Missing []string
}

func (e *ConfigIncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Channel, strings.Join(e.Missing, ", "))
}

func (e *ConfigIncompleteError) Is(target error) bool {
	return target == ErrChannelConfigIncomplete
}

// DeliveryError wraps a transport failure or a provider-side rejection
type DeliveryError struct {
	Channel    string
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	msg := e.Channel + ": delivery failed"

	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrChannelDeliveryFailed
}

// requireFields returns a *ConfigIncompleteError when any key is empty.
func requireFields(channel string, cfg model.ChannelConfig, keys ...string) error {
	if missing := cfg.Missing(keys...); len(missing) > 0 {
		return &ConfigIncompleteError{Channel: channel, Missing: missing}
	}

	return nil
}
