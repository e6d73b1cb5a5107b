package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Dispatcher routes messages to registered senders, one after another.
// Each send is capped at 30 seconds on top of the caller's context.
type Dispatcher struct {
	senders []Sender
	logger  *slog.Logger
	timeout time.Duration
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(logger *slog.Logger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		senders: senders,
		logger:  logger,
		timeout: defaultTimeout,
	}
}

// Dispatch sends msg to every registered sender and returns one result per
// sender, in registration order. A failing or panicking sender does not stop
// the others.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) []Result {
	results := make([]Result, 0, len(d.senders))

	for _, sender := range d.senders {
		err := d.sendWithRecover(ctx, sender, msg)
		results = append(results, Result{Channel: sender.Name(), Err: err})

		if err != nil {
			d.logger.Error("notification failed", "channel", sender.Name(), "account", msg.Account, "error", err)
			continue
		}

		d.logger.Info("notification sent", "channel", sender.Name(), "account", msg.Account)
	}

	return results
}

// sendWithRecover sends a message and turns a panic into a delivery error.
func (d *Dispatcher) sendWithRecover(ctx context.Context, sender Sender, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{Channel: sender.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return sender.Send(sendCtx, msg)
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var failed []Result

	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}

	return failed
}
