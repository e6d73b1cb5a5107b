// Package state persists refresh tokens between runs.
//
// Every exchange with the auth service rotates the refresh token, so the
// token used today is useless tomorrow. A [Store] loads the accounts before
// a run and saves the rotated tokens after it. Three backends exist:
//
//   - [IniStore] rewrites refresh_tokens in the INI configuration file
//   - [BoltStore] keeps accounts in a local bbolt file and also caches the
//     access token with its expiry
//   - [GitHubSecretStore] updates an encrypted GitHub Actions secret, for
//     runs driven from a scheduled workflow
//
// Use [New] to pick the backend named by the configuration.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/inovacc/drivesign/internal/model"
)

// ErrNoAccounts means a store has no refresh token to start from.
var ErrNoAccounts = errors.New("no accounts configured")

// Account is the persisted form of one drive credential.
type Account struct {
	RefreshToken string    `json:"refresh_token"`
	AccessToken  string    `json:"access_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Account      string    `json:"account,omitempty"`
}

// Valid reports whether the cached access token can still be used at now.
func (a Account) Valid(now time.Time) bool {
	return a.AccessToken != "" && a.ExpiresAt.After(now)
}

// State is the ordered list of accounts a run works on.
type State struct {
	Accounts []Account `json:"accounts"`
}

// FromTokens builds a State with one account per refresh token.
func FromTokens(tokens []string) *State {
	s := &State{Accounts: make([]Account, 0, len(tokens))}

	for _, t := range tokens {
		s.Accounts = append(s.Accounts, Account{RefreshToken: t})
	}

	return s
}

// Tokens returns the refresh tokens in account order.
func (s *State) Tokens() []string {
	out := make([]string, 0, len(s.Accounts))

	for _, a := range s.Accounts {
		out = append(out, a.RefreshToken)
	}

	return out
}

// Store loads and saves the run state.
type Store interface {
	// Name identifies the backend, e.g. "bolt".
	Name() string

	// Load returns the accounts to process.
	Load(ctx context.Context) (*State, error)

	// Save persists the rotated tokens.
	Save(ctx context.Context, s *State) error

	// Close releases any resource held by the store.
	Close() error
}

// New returns the store selected by cfg.StateBackend. Tokens from the
// configuration seed stores that cannot read their own data back.
func New(cfg *model.Config, opts ...GitHubOption) (Store, error) {
	switch cfg.StateBackend {
	case model.StateINI, "":
		if cfg.Source != model.SourceINI {
			return nil, errors.New("state backend ini needs an INI configuration file")
		}

		return NewIniStore(cfg.Path), nil
	case model.StateBolt:
		return NewBoltStore(cfg.StatePath, cfg.RefreshTokens)
	case model.StateGitHub:
		return NewGitHubSecretStore(cfg.GitHub, cfg.RefreshTokens, opts...)
	default:
		return nil, errors.New("unknown state backend: " + string(cfg.StateBackend))
	}
}
