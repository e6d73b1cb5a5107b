// Package notify delivers sign-in results to notification channels.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/inovacc/drivesign/internal/drive"
)

// DefaultTitle is the title used for every sign-in notification.
const DefaultTitle = "Aliyun Drive sign-in"

// Message is a generic notification. Title and Body are ready to send as
// plain text; the structured fields let rich-text channels format their own.
type Message struct {
	// Title is the notification title
	Title string

	// Body is the plain text body
	Body string

	// Account identifies the drive account the result belongs to
	Account string

	// Success indicates if the sign-in succeeded
	Success bool

	// Count is the monthly sign-in count (success only)
	Count int

	// Reward is today's reward text (success only)
	Reward string

	// Error contains the failure details (failure only)
	Error string

	// Timestamp is when the message was built
	Timestamp time.Time
}

// NewMessage builds the notification for one account's sign-in outcome.
func NewMessage(account string, outcome *drive.Outcome) *Message {
	msg := &Message{
		Title:     DefaultTitle,
		Account:   account,
		Timestamp: time.Now(),
	}

	if outcome == nil {
		outcome = drive.Failed("no result")
	}

	if outcome.Success {
		msg.Success = true
		msg.Count = outcome.MonthlyCount
		msg.Reward = outcome.Reward
		msg.Body = fmt.Sprintf("[%s] sign-in succeeded: %d days signed in this month. Today's reward: %s",
			account, outcome.MonthlyCount, outcome.Reward)

		return msg
	}

	msg.Error = outcome.RawError
	msg.Body = fmt.Sprintf("[%s] sign-in failed: %s", account, outcome.RawError)

	return msg
}

// NewTestMessage builds a message used to verify channel configuration.
func NewTestMessage() *Message {
	return &Message{
		Title:     DefaultTitle,
		Body:      "This is a test notification. If you can read it, the channel is configured correctly.",
		Account:   "test",
		Success:   true,
		Reward:    drive.NoReward,
		Timestamp: time.Now(),
	}
}

// Sender is the interface for notification senders.
type Sender interface {
	// Name returns the channel identifier, e.g. "telegram".
	Name() string

	// Send delivers msg. It returns a *ConfigIncompleteError without any
	// network call when required credentials are missing, and a
	// *DeliveryError when the provider could not be reached or refused it.
	Send(ctx context.Context, msg *Message) error
}

// Result is the outcome of delivering one message to one channel.
type Result struct {
	Channel string
	Err     error
}

// OK reports whether the delivery succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}
