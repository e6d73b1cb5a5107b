package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/drivesign/internal/model"
)

const sampleINI = `; drive sign-in
refresh_tokens = old-a, old-b
push_types = telegram

# telegram
telegram_bot_token = 123:abc
`

func writeINI(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestIniStore_LoadSave(t *testing.T) {
	path := writeINI(t, sampleINI)
	store := NewIniStore(path)
	ctx := context.Background()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-a", "old-b"}, st.Tokens())

	st.Accounts[0].RefreshToken = "new-a"
	st.Accounts[1].RefreshToken = "new-b"
	require.NoError(t, store.Save(ctx, st))

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-a", "new-b"}, again.Tokens())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "telegram_bot_token")
	assert.Contains(t, string(data), "123:abc")
}

func TestIniStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewIniStore(filepath.Join(t.TempDir(), "missing.ini")).Load(ctx)
	assert.Error(t, err)

	_, err = NewIniStore(writeINI(t, "push_types = smtp\n")).Load(ctx)
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func newBolt(t *testing.T, path string, seed ...string) *BoltStore {
	t.Helper()

	store, err := NewBoltStore(path, seed)
	require.NoError(t, err)

	return store
}

func TestBoltStore_SeedAndRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "drivesign.bolt")
	ctx := context.Background()

	store := newBolt(t, path, "seed-a", "seed-b")

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed-a", "seed-b"}, st.Tokens())

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	st.Accounts[0] = Account{RefreshToken: "rot-a", AccessToken: "acc-a", ExpiresAt: expires, Account: "alice"}
	st.Accounts[1].RefreshToken = "rot-b"
	require.NoError(t, store.Save(ctx, st))
	require.NoError(t, store.Close())

	// Same configured tokens: the rotated ones in the file win.
	store = newBolt(t, path, "seed-a", "seed-b")

	st, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rot-a", "rot-b"}, st.Tokens())
	assert.Equal(t, "acc-a", st.Accounts[0].AccessToken)
	assert.True(t, expires.Equal(st.Accounts[0].ExpiresAt))
	assert.Equal(t, "alice", st.Accounts[0].Account)
	require.NoError(t, store.Close())

	// A changed configured list replaces the stored accounts.
	store = newBolt(t, path, "seed-c")
	defer func() { _ = store.Close() }()

	st, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed-c"}, st.Tokens())
}

func TestBoltStore_OrderBeyondTen(t *testing.T) {
	seed := make([]string, 12)
	for i := range seed {
		seed[i] = string(rune('a' + i))
	}

	store := newBolt(t, filepath.Join(t.TempDir(), "s.bolt"), seed...)
	defer func() { _ = store.Close() }()

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, st.Tokens())
}

func TestBoltStore_Empty(t *testing.T) {
	store := newBolt(t, filepath.Join(t.TempDir(), "s.bolt"))
	defer func() { _ = store.Close() }()

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func TestAccount_Valid(t *testing.T) {
	now := time.Now()

	assert.True(t, Account{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}.Valid(now))
	assert.False(t, Account{AccessToken: "a", ExpiresAt: now.Add(-time.Minute)}.Valid(now))
	assert.False(t, Account{ExpiresAt: now.Add(time.Minute)}.Valid(now))
}

func TestNew(t *testing.T) {
	iniPath := writeINI(t, sampleINI)

	tests := []struct {
		name     string
		cfg      model.Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "ini",
			cfg:      model.Config{StateBackend: model.StateINI, Source: model.SourceINI, Path: iniPath},
			wantName: "ini",
		},
		{
			name:    "ini from env",
			cfg:     model.Config{StateBackend: model.StateINI, Source: model.SourceEnv},
			wantErr: true,
		},
		{
			name:     "bolt",
			cfg:      model.Config{StateBackend: model.StateBolt, StatePath: filepath.Join(t.TempDir(), "x.bolt"), RefreshTokens: []string{"a"}},
			wantName: "bolt",
		},
		{
			name: "github",
			cfg: model.Config{
				StateBackend:  model.StateGitHub,
				RefreshTokens: []string{"a"},
				GitHub:        model.GitHubConfig{Repository: "octo/drive", Token: "t"},
			},
			wantName: "github",
		},
		{
			name:    "github without repo",
			cfg:     model.Config{StateBackend: model.StateGitHub, GitHub: model.GitHubConfig{Token: "t"}},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     model.Config{StateBackend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, store.Name())
			assert.NoError(t, store.Close())
		})
	}
}
