// Package config loads the run configuration from an INI file or from
// environment variables and validates it once.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"

	"github.com/inovacc/drivesign/internal/model"
)

// DefaultTelegramEndpoint is used when telegram_endpoint is not configured.
const DefaultTelegramEndpoint = "https://api.telegram.org"

// ErrMissingEnv means a required environment variable is not set.
var ErrMissingEnv = errors.New("required environment variable missing")

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their configuration key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("ini"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	_ = v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		return model.IsKnownChannel(fl.Field().String())
	})

	return v
}

// LoadINI reads the flat default section of the INI file at path.
func LoadINI(path string) (*model.Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg := model.DefaultConfig()
	cfg.Source = model.SourceINI
	cfg.Path = path

	section := f.Section("")

	if err := section.MapTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := section.MapTo(&cfg.GitHub); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	for _, keys := range model.ChannelKeys {
		for _, k := range keys {
			if section.HasKey(k) {
				cfg.Channels[k] = section.Key(k).String()
			}
		}
	}

	return finish(&cfg)
}

// LoadEnv reads the configuration from the process environment.
func LoadEnv() (*model.Config, error) {
	return FromEnv(os.LookupEnv)
}

// FromEnv reads the configuration through lookup. REFRESH_TOKENS and
// PUSH_TYPES must be set; PUSH_TYPES may be empty to disable notifications.
// Channel credentials use the upper-cased key names, and GITHUB_REPOS with
// GP_TOKEN select the github state backend.
func FromEnv(lookup LookupFunc) (*model.Config, error) {
	var missing []error

	tokens, ok := lookup("REFRESH_TOKENS")
	if !ok {
		missing = append(missing, fmt.Errorf("%w: REFRESH_TOKENS", ErrMissingEnv))
	}

	pushTypes, ok := lookup("PUSH_TYPES")
	if !ok {
		missing = append(missing, fmt.Errorf("%w: PUSH_TYPES", ErrMissingEnv))
	}

	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := model.DefaultConfig()
	cfg.Source = model.SourceEnv
	cfg.Path = ""
	cfg.RefreshTokens = []string{tokens}
	cfg.PushTypes = []string{pushTypes}

	cfg.GitHub.Repository = get("GITHUB_REPOS")
	cfg.GitHub.Token = get("GP_TOKEN")

	if v := get("GITHUB_SECRET_NAME"); v != "" {
		cfg.GitHub.SecretName = v
	}

	cfg.StateBackend = model.StateBolt
	if cfg.GitHub.Repository != "" {
		cfg.StateBackend = model.StateGitHub
	}

	if v := get("STATE_BACKEND"); v != "" {
		cfg.StateBackend = model.StateBackend(strings.ToLower(v))
	}

	if v := get("STATE_PATH"); v != "" {
		cfg.StatePath = v
	}

	if v, ok := lookup("LOG_DIR"); ok {
		cfg.LogDir = strings.TrimSpace(v)
	}

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	for _, keys := range model.ChannelKeys {
		for _, k := range keys {
			if v, ok := lookup(strings.ToUpper(k)); ok {
				cfg.Channels[k] = v
			}
		}
	}

	return finish(&cfg)
}

// finish normalizes list values, applies channel defaults and validates.
func finish(cfg *model.Config) (*model.Config, error) {
	cfg.RefreshTokens = model.SplitTokens(cfg.RefreshTokens...)
	cfg.PushTypes = model.NormalizeList(cfg.PushTypes...)
	cfg.StateBackend = model.StateBackend(strings.ToLower(strings.TrimSpace(string(cfg.StateBackend))))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.GitHub.Enabled = cfg.StateBackend == model.StateGitHub

	if cfg.Channels.Get("telegram_endpoint") == "" {
		cfg.Channels["telegram_endpoint"] = DefaultTelegramEndpoint
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags and reports every problem by
// configuration key.
func Validate(cfg *model.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}

	return &ValidationError{Problems: problems, Err: verrs}
}

func describe(fe validator.FieldError) string {
	name := fe.Field()

	switch fe.Tag() {
	case "required", "required_if":
		return name + " is required"
	case "min":
		return name + " needs at least " + fe.Param() + " entry"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "channel":
		return fmt.Sprintf("%s: unknown channel %q", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}

// ValidationError lists every configuration problem found.
type ValidationError struct {
	Problems []string
	Err      error
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
