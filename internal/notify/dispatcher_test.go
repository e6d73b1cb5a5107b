package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/drivesign/internal/drive"
)

// fakeSender records calls and returns err, or panics when panicMsg is set.
type fakeSender struct {
	name     string
	err      error
	panicMsg string
	calls    int
	got      *Message
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, msg *Message) error {
	f.calls++
	f.got = msg

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}

	return f.err
}

func TestDispatcher_Dispatch_FailureDoesNotBlockOthers(t *testing.T) {
	first := &fakeSender{name: "first"}
	second := &fakeSender{name: "second", panicMsg: "boom"}
	third := &fakeSender{name: "third"}

	d := NewDispatcher(nil, first, second, third)
	msg := NewMessage("acct", &drive.Outcome{Success: true, MonthlyCount: 3, Reward: drive.NoReward})

	var results []Result
	require.NotPanics(t, func() {
		results = d.Dispatch(context.Background(), msg)
	})

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Channel)
	assert.True(t, results[0].OK())

	assert.Equal(t, "second", results[1].Channel)
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, ErrChannelDeliveryFailed)
	assert.Contains(t, results[1].Err.Error(), "boom")

	assert.Equal(t, "third", results[2].Channel)
	assert.True(t, results[2].OK())
	assert.Equal(t, 1, third.calls)
	assert.Same(t, msg, third.got)
}

func TestDispatcher_Dispatch_ErrorResults(t *testing.T) {
	errBoom := errors.New("boom")

	d := NewDispatcher(nil,
		&fakeSender{name: "a", err: errBoom},
		&fakeSender{name: "b"},
	)

	results := d.Dispatch(context.Background(), NewTestMessage())
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, errBoom)
	assert.True(t, results[1].OK())

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "a", failed[0].Channel)
}

func TestDispatcher_SendReceivesDeadline(t *testing.T) {
	var (
		deadline    time.Time
		hasDeadline bool
	)

	sender := &ctxSender{fn: func(ctx context.Context) {
		deadline, hasDeadline = ctx.Deadline()
	}}

	start := time.Now()
	NewDispatcher(nil, sender).Dispatch(context.Background(), NewTestMessage())
	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(30*time.Second), deadline, 5*time.Second)
}

type ctxSender struct {
	fn func(ctx context.Context)
}

func (c *ctxSender) Name() string { return "ctx" }

func (c *ctxSender) Send(ctx context.Context, msg *Message) error {
	c.fn(ctx)
	return nil
}

func TestNewMessage(t *testing.T) {
	ok := NewMessage("138****0000", &drive.Outcome{Success: true, MonthlyCount: 12, Reward: "Coupon 1 day"})
	assert.True(t, ok.Success)
	assert.Equal(t, DefaultTitle, ok.Title)
	assert.Equal(t, 12, ok.Count)
	assert.Equal(t, "[138****0000] sign-in succeeded: 12 days signed in this month. Today's reward: Coupon 1 day", ok.Body)

	failed := NewMessage("138****0000", drive.Failed(`{"code":"AccessTokenInvalid"}`))
	assert.False(t, failed.Success)
	assert.Equal(t, `{"code":"AccessTokenInvalid"}`, failed.Error)
	assert.Equal(t, `[138****0000] sign-in failed: {"code":"AccessTokenInvalid"}`, failed.Body)

	empty := NewMessage("x", nil)
	assert.False(t, empty.Success)
	assert.NotEmpty(t, empty.Body)
}
