package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v82/github"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/oauth2"

	"github.com/inovacc/drivesign/internal/model"
)

// GitHubSecretStore writes the comma-joined refresh tokens into a GitHub
// Actions repository secret. Secrets cannot be read back, so Load returns
// the tokens the workflow passed in through the environment.
type GitHubSecretStore struct {
	client     *github.Client
	owner      string
	repo       string
	secretName string
	seed       []string
}

type githubOptions struct {
	baseURL   string
	transport http.RoundTripper
}

// GitHubOption configures a GitHubSecretStore.
type GitHubOption func(*githubOptions)

// WithGitHubBaseURL points the client at another API root, such as a
// GitHub Enterprise server or a test server.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(o *githubOptions) {
		o.baseURL = u
	}
}

// WithGitHubTransport sets the base transport under the auth and rate
// limit layers.
func WithGitHubTransport(rt http.RoundTripper) GitHubOption {
	return func(o *githubOptions) {
		o.transport = rt
	}
}

// NewGitHubSecretStore returns a store for cfg.Repository ("owner/repo").
func NewGitHubSecretStore(cfg model.GitHubConfig, seed []string, opts ...GitHubOption) (*GitHubSecretStore, error) {
	owner, repo, err := splitRepo(cfg.Repository)
	if err != nil {
		return nil, err
	}

	if cfg.Token == "" {
		return nil, errors.New("github token is required to update repository secrets")
	}

	o := githubOptions{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	client := newGitHubClient(cfg.Token, o.transport)

	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimRight(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}

		client.BaseURL = u
	}

	name := cfg.SecretName
	if name == "" {
		name = "REFRESH_TOKENS"
	}

	return &GitHubSecretStore{
		client:     client,
		owner:      owner,
		repo:       repo,
		secretName: name,
		seed:       seed,
	}, nil
}

// newGitHubClient layers token auth and secondary rate limit handling over base.
func newGitHubClient(token string, base http.RoundTripper) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	authTransport := &oauth2.Transport{Source: ts, Base: base}

	return github.NewClient(github_ratelimit.NewClient(authTransport))
}

func (g *GitHubSecretStore) Name() string { return string(model.StateGitHub) }

func (g *GitHubSecretStore) Load(ctx context.Context) (*State, error) {
	if len(g.seed) == 0 {
		return nil, ErrNoAccounts
	}

	return FromTokens(g.seed), nil
}

func (g *GitHubSecretStore) Save(ctx context.Context, st *State) error {
	key, _, err := g.client.Actions.GetRepoPublicKey(ctx, g.owner, g.repo)
	if err != nil {
		return fmt.Errorf("failed to get public key for %s/%s: %w", g.owner, g.repo, err)
	}

	sealed, err := sealSecret(key.GetKey(), strings.Join(st.Tokens(), ","))
	if err != nil {
		return err
	}

	secret := &github.EncryptedSecret{
		Name:           g.secretName,
		KeyID:          key.GetKeyID(),
		EncryptedValue: sealed,
	}

	if _, err := g.client.Actions.CreateOrUpdateRepoSecret(ctx, g.owner, g.repo, secret); err != nil {
		return fmt.Errorf("failed to update secret %s: %w", g.secretName, err)
	}

	return nil
}

func (g *GitHubSecretStore) Close() error { return nil }

// sealSecret encrypts value for the base64 encoded repository public key
// with an anonymous sealed box, as the Actions secrets API expects.
func sealSecret(publicKey, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("decoding public key: %w", err)
	}

	if len(raw) != 32 {
		return "", fmt.Errorf("public key has %d bytes, want 32", len(raw))
	}

	var pk [32]byte
	copy(pk[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &pk, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("sealing secret: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// splitRepo splits "owner/repo" into its parts.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(fullName), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", fullName)
	}

	return parts[0], parts[1], nil
}
