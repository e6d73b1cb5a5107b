package drive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// NoReward is the reward text used when today's record carries no reward.
const NoReward = "no reward"

// StatusMiss marks a day in the sign-in log that was not signed in.
const StatusMiss = "miss"

// Outcome is the interpreted result of one sign-in call.
type Outcome struct {
	// Success is true when upstream acknowledged the sign-in
	Success bool `json:"success"`

	// MonthlyCount is the number of sign-in days this month, as reported upstream
	MonthlyCount int `json:"monthly_count,omitempty"`

	// Reward describes today's reward, or NoReward
	Reward string `json:"reward,omitempty"`

	// RawError carries the upstream response or error text on failure
	RawError string `json:"raw_error,omitempty"`
}

// Failed builds a failure outcome carrying msg for display.
func Failed(msg string) *Outcome {
	return &Outcome{RawError: msg}
}

// Reward is the prize attached to a sign-in day.
type Reward struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SignInLog is one day of the monthly sign-in log.
type SignInLog struct {
	Day      int     `json:"day"`
	Status   string  `json:"status"`
	IsReward bool    `json:"isReward"`
	Reward   *Reward `json:"reward"`
}

type signInResponse struct {
	Success *bool  `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Result  struct {
		SignInCount int         `json:"signInCount"`
		SignInLogs  []SignInLog `json:"signInLogs"`
	} `json:"result"`
}

// SignIn performs the daily sign-in with accessToken.
//
// The returned outcome is never nil. When the sign-in did not succeed the
// outcome carries the raw response and the error (matching
// ErrUpstreamUnavailable) explains why; callers log the error and still
// dispatch the outcome.
func (c *Client) SignIn(ctx context.Context, accessToken string) (*Outcome, error) {
	const op = "sign in"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	status, body, err := c.postJSON(ctx, op, c.signInURL, struct{}{}, header)
	if err != nil {
		return Failed(err.Error()), err
	}

	var data signInResponse
	if err := json.Unmarshal(body, &data); err != nil {
		uerr := &UpstreamError{Operation: op, StatusCode: status, Body: string(body), Err: err}
		return Failed(string(body)), uerr
	}

	if data.Success == nil || !*data.Success {
		uerr := &UpstreamError{
			Operation:  op,
			StatusCode: status,
			Body:       string(body),
			Err:        errors.New("response has no success marker"),
		}

		return Failed(string(body)), uerr
	}

	return &Outcome{
		Success:      true,
		MonthlyCount: data.Result.SignInCount,
		Reward:       RewardText(TodayRecord(data.Result.SignInLogs)),
	}, nil
}

// TodayRecord returns the most recent signed-in day: the record right before
// the first missed day. The log is ordered oldest to newest.
//
// With no missed day the last record is used. When the very first record is
// already missed, or the log is empty, there is no record and nil is returned.
func TodayRecord(logs []SignInLog) *SignInLog {
	for i := range logs {
		if logs[i].Status != StatusMiss {
			continue
		}

		if i == 0 {
			return nil
		}

		return &logs[i-1]
	}

	if len(logs) == 0 {
		return nil
	}

	return &logs[len(logs)-1]
}

// RewardText renders the reward of a sign-in record for humans.
func RewardText(rec *SignInLog) string {
	if rec == nil || !rec.IsReward || rec.Reward == nil {
		return NoReward
	}

	text := strings.TrimSpace(rec.Reward.Name + " " + rec.Reward.Description)
	if text == "" {
		return NoReward
	}

	return text
}
