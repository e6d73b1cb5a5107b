package model

import (
	"path/filepath"
	"strings"

	"github.com/inovacc/drivesign/internal/application"
)

// StateBackend selects where rotated refresh tokens are written back.
type StateBackend string

const (
	// StateINI rewrites refresh_tokens in the INI config file
	StateINI StateBackend = "ini"

	// StateBolt keeps tokens and cached access tokens in a local bbolt file
	StateBolt StateBackend = "bolt"

	// StateGitHub updates a GitHub Actions repository secret
	StateGitHub StateBackend = "github"
)

// ConfigSource records how the configuration was obtained.
type ConfigSource string

const (
	SourceINI ConfigSource = "ini"
	SourceEnv ConfigSource = "env"
)

// GitHubConfig holds the secret-store settings used by the github state backend.
type GitHubConfig struct {
	// Repository is the owner/repo whose Actions secret is updated
	Repository string `ini:"github_repository" validate:"required_if=Enabled true"`

	// Token is a token allowed to write repository secrets
	Token string `ini:"github_token" validate:"required_if=Enabled true"`

	// SecretName is the secret that stores the comma-joined refresh tokens
	SecretName string `ini:"github_secret_name"`

	// Enabled mirrors StateBackend == StateGitHub for validation
	Enabled bool `ini:"-"`
}

// Config holds the application configuration
type Config struct {
	// RefreshTokens is one refresh token per account
	RefreshTokens []string `ini:"refresh_tokens" delim:"," validate:"required,min=1,dive,required"`

	// PushTypes is the normalized list of enabled notification channels
	PushTypes []string `ini:"push_types" delim:"," validate:"dive,channel"`

	// StateBackend selects the persistence strategy for rotated tokens
	StateBackend StateBackend `ini:"state_backend" validate:"required,oneof=ini bolt github"`

	// StatePath is the bbolt file path when StateBackend is bolt
	StatePath string `ini:"state_path"`

	// LogDir is where the rotating log file is written; empty disables file logging
	LogDir string `ini:"log_dir"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `ini:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// GitHub configures the github state backend
	GitHub GitHubConfig `ini:"-"`

	// Channels holds every channel credential key found in the source
	Channels ChannelConfig `ini:"-"`

	// Source is where this configuration came from
	Source ConfigSource `ini:"-"`

	// Path is the INI file path when Source is SourceINI
	Path string `ini:"-"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		StateBackend: StateINI,
		StatePath:    application.DefaultStatePath(),
		LogDir:       ".",
		LogLevel:     "info",
		GitHub: GitHubConfig{
			SecretName: "REFRESH_TOKENS",
		},
		Channels: ChannelConfig{},
		Source:   SourceINI,
		Path:     application.DefaultConfigFile,
	}
}

// LogFile returns the rotating log file path, or empty when file logging is off.
func (c *Config) LogFile() string {
	if c.LogDir == "" {
		return ""
	}

	return filepath.Join(c.LogDir, application.DefaultLogFile)
}

// ChannelConfig maps a credential key (e.g. telegram_bot_token) to its value.
// It is read-only once loaded.
type ChannelConfig map[string]string

// Get returns the trimmed value for key, or an empty string.
func (c ChannelConfig) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// Missing returns the subset of keys whose value is empty.
func (c ChannelConfig) Missing(keys ...string) []string {
	var missing []string

	for _, k := range keys {
		if c.Get(k) == "" {
			missing = append(missing, k)
		}
	}

	return missing
}

// NormalizeList trims, lower-cases and de-duplicates names, dropping empty entries.
// A single value and a comma separated value are both accepted.
func NormalizeList(values ...string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}

			if _, ok := seen[name]; ok {
				continue
			}

			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	return out
}

// SplitTokens splits a comma separated token list, trimming whitespace and
// dropping empty entries. Order and duplicates are preserved.
func SplitTokens(values ...string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
	}

	return out
}
