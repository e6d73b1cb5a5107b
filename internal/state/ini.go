package state

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/inovacc/drivesign/internal/model"
)

const iniTokensKey = "refresh_tokens"

// IniStore keeps refresh tokens in the refresh_tokens key of an INI file.
// Only that key is rewritten; other keys and comments are preserved.
type IniStore struct {
	path string
}

// NewIniStore returns a store backed by the INI file at path.
func NewIniStore(path string) *IniStore {
	return &IniStore{path: path}
}

func (s *IniStore) Name() string { return string(model.StateINI) }

func (s *IniStore) Load(ctx context.Context) (*State, error) {
	f, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}

	tokens := model.SplitTokens(f.Section("").Key(iniTokensKey).String())
	if len(tokens) == 0 {
		return nil, ErrNoAccounts
	}

	return FromTokens(tokens), nil
}

func (s *IniStore) Save(ctx context.Context, st *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := ini.Load(s.path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", s.path, err)
	}

	f.Section("").Key(iniTokensKey).SetValue(strings.Join(st.Tokens(), ","))

	if err := f.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	return nil
}

func (s *IniStore) Close() error { return nil }
