package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// BookkeepingZone is the fixed UTC+8 zone credential expiry is recorded in.
// Upstream timestamps are UTC; the instant is unchanged.
var BookkeepingZone = time.FixedZone("UTC+8", 8*60*60)

// Credential is the result of a successful refresh token exchange.
type Credential struct {
	// RefreshToken is the rotated token; the one used for the exchange is now invalid
	RefreshToken string `json:"refresh_token"`

	// AccessToken is the short-lived bearer token
	AccessToken string `json:"access_token"`

	// ExpiresAt is when AccessToken stops being accepted
	ExpiresAt time.Time `json:"expires_at"`

	// Account identifies the user (upstream user_name, usually a phone number)
	Account string `json:"account"`
}

type tokenResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpireTime   string `json:"expire_time"`
	ExpiresIn    int64  `json:"expires_in"`
	UserName     string `json:"user_name"`
	NickName     string `json:"nick_name"`
}

// Refresh exchanges refreshToken for a new credential pair.
//
// A rejected token yields a *RefreshError matching ErrCredentialExpired; the
// caller must keep the account out of this run. Malformed responses yield an
// *UpstreamError matching ErrUpstreamUnavailable.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	const op = "refresh access token"

	if refreshToken == "" {
		return nil, &RefreshError{Code: "InvalidParameter.RefreshToken", Message: "empty refresh token"}
	}

	started := c.now()

	status, body, err := c.postJSON(ctx, op, c.authURL, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, nil)
	if err != nil {
		return nil, err
	}

	var data tokenResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &UpstreamError{Operation: op, StatusCode: status, Body: string(body), Err: err}
	}

	if _, ok := expiredCodes[data.Code]; ok {
		return nil, &RefreshError{Code: data.Code, Message: data.Message}
	}

	if data.Code != "" || status >= http.StatusMultipleChoices {
		return nil, &UpstreamError{Operation: op, StatusCode: status, Body: string(body)}
	}

	if data.AccessToken == "" || data.RefreshToken == "" {
		return nil, &UpstreamError{
			Operation:  op,
			StatusCode: status,
			Body:       string(body),
			Err:        errors.New("response is missing tokens"),
		}
	}

	expiresAt, err := parseExpiry(data, started)
	if err != nil {
		return nil, &UpstreamError{Operation: op, StatusCode: status, Body: string(body), Err: err}
	}

	if !expiresAt.After(started) {
		return nil, &UpstreamError{
			Operation:  op,
			StatusCode: status,
			Err:        fmt.Errorf("access token already expired at %s", expiresAt.Format(time.RFC3339)),
		}
	}

	account := data.UserName
	if account == "" {
		account = data.NickName
	}

	c.logger.Debug("access token refreshed", "account", account, "expires_at", expiresAt)

	return &Credential{
		RefreshToken: data.RefreshToken,
		AccessToken:  data.AccessToken,
		ExpiresAt:    expiresAt,
		Account:      account,
	}, nil
}

// parseExpiry reads expire_time (ISO-8601 UTC) and falls back to expires_in
// seconds counted from the request time.
func parseExpiry(data tokenResponse, started time.Time) (time.Time, error) {
	if data.ExpireTime != "" {
		t, err := time.Parse(time.RFC3339, data.ExpireTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid expire_time %q: %w", data.ExpireTime, err)
		}

		return t.In(BookkeepingZone), nil
	}

	if data.ExpiresIn > 0 {
		return started.Add(time.Duration(data.ExpiresIn) * time.Second).In(BookkeepingZone), nil
	}

	return time.Time{}, errors.New("response has no expiry")
}
