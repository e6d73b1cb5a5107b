package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/box"

	"github.com/inovacc/drivesign/internal/model"
)

// fakeSecretsAPI serves the two Actions secrets endpoints for octo/drive.
type fakeSecretsAPI struct {
	pub, priv *[32]byte

	auth   string
	name   string
	keyID  string
	secret []byte
}

func newFakeSecretsAPI(t *testing.T) (*fakeSecretsAPI, *httptest.Server) {
	t.Helper()

	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	f := &fakeSecretsAPI{pub: pub, priv: priv}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/drive/actions/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		f.auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"key_id": "kid-1",
			"key":    base64.StdEncoding.EncodeToString(f.pub[:]),
		})
	})
	mux.HandleFunc("PUT /repos/octo/drive/actions/secrets/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			KeyID          string `json:"key_id"`
			EncryptedValue string `json:"encrypted_value"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		sealed, err := base64.StdEncoding.DecodeString(body.EncryptedValue)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		opened, ok := box.OpenAnonymous(nil, sealed, f.pub, f.priv)
		if !ok {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}

		f.name = r.PathValue("name")
		f.keyID = body.KeyID
		f.secret = opened

		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return f, srv
}

func TestGitHubSecretStore_Save(t *testing.T) {
	api, srv := newFakeSecretsAPI(t)

	store, err := NewGitHubSecretStore(model.GitHubConfig{
		Repository: "octo/drive",
		Token:      "gp-token",
	}, []string{"old-a", "old-b"}, WithGitHubBaseURL(srv.URL))
	require.NoError(t, err)

	ctx := context.Background()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-a", "old-b"}, st.Tokens())

	st.Accounts[0].RefreshToken = "new-a"
	st.Accounts[1].RefreshToken = "new-b"
	require.NoError(t, store.Save(ctx, st))

	assert.Equal(t, "Bearer gp-token", api.auth)
	assert.Equal(t, "REFRESH_TOKENS", api.name)
	assert.Equal(t, "kid-1", api.keyID)
	assert.Equal(t, "new-a,new-b", string(api.secret))
}

func TestGitHubSecretStore_SaveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	store, err := NewGitHubSecretStore(model.GitHubConfig{
		Repository: "octo/drive",
		Token:      "t",
		SecretName: "TOKENS",
	}, []string{"a"}, WithGitHubBaseURL(srv.URL))
	require.NoError(t, err)

	err = store.Save(context.Background(), FromTokens([]string{"b"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "octo/drive")
}

func TestGitHubSecretStore_LoadWithoutTokens(t *testing.T) {
	store, err := NewGitHubSecretStore(model.GitHubConfig{Repository: "octo/drive", Token: "t"}, nil)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func TestSealSecret(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sealed, err := sealSecret(base64.StdEncoding.EncodeToString(pub[:]), "token-1,token-2")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	opened, ok := box.OpenAnonymous(nil, raw, pub, priv)
	require.True(t, ok)
	assert.Equal(t, "token-1,token-2", string(opened))

	_, err = sealSecret("not base64!", "x")
	assert.Error(t, err)

	_, err = sealSecret(base64.StdEncoding.EncodeToString([]byte("short")), "x")
	assert.Error(t, err)
}

func TestSplitRepo(t *testing.T) {
	owner, repo, err := splitRepo(" octo/drive ")
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "drive", repo)

	for _, bad := range []string{"", "octo", "/drive", "octo/"} {
		_, _, err := splitRepo(bad)
		assert.Error(t, err, bad)
	}
}
