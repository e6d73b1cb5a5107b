package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inovacc/drivesign/internal/application"
	"github.com/inovacc/drivesign/internal/config"
	"github.com/inovacc/drivesign/internal/logger"
	"github.com/inovacc/drivesign/internal/model"
	"github.com/inovacc/drivesign/internal/notify"
)

// GlobalFlags holds the flags shared by every command
type GlobalFlags struct {
	Config   string
	Env      bool
	LogLevel string
	JSONLog  bool
}

// addGlobalFlags registers the shared flags on fs
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", application.DefaultConfigFile, "INI configuration file")
	fs.Bool("env", false, "Read configuration from environment variables instead of a file")
	fs.String("log-level", "", "Override log_level (debug, info, warn, error)")
	fs.Bool("json-log", false, "Write console logs as JSON")
}

// extractGlobalFlags reads the shared flags from a cobra command
func extractGlobalFlags(cmd *cobra.Command) GlobalFlags {
	fs := cmd.Flags()

	cfgPath, _ := fs.GetString("config")
	env, _ := fs.GetBool("env")
	level, _ := fs.GetString("log-level")
	jsonLog, _ := fs.GetBool("json-log")

	return GlobalFlags{
		Config:   cfgPath,
		Env:      env,
		LogLevel: level,
		JSONLog:  jsonLog,
	}
}

// loadConfig reads the configuration selected by the global flags
func loadConfig(flags GlobalFlags) (*model.Config, error) {
	var (
		cfg *model.Config
		err error
	)

	if flags.Env {
		cfg, err = config.LoadEnv()
	} else {
		cfg, err = config.LoadINI(flags.Config)
	}

	if err != nil {
		return nil, err
	}

	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel

		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// setupLogger creates the run logger and installs it as the slog default
func setupLogger(cfg *model.Config, flags GlobalFlags) (*logger.Logger, error) {
	l, err := logger.New(logger.Options{
		File:  cfg.LogFile(),
		Level: cfg.LogLevel,
		JSON:  flags.JSONLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	slog.SetDefault(l.Logger)

	return l, nil
}

// buildSenders creates a sender for every channel in names
func buildSenders(names []string, cfg *model.Config, log *slog.Logger) ([]notify.Sender, error) {
	registry := notify.NewRegistry()

	senders, err := registry.Build(names, cfg.Channels, notify.WithLogger(log))
	if errors.Is(err, notify.ErrUnknownChannel) {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Names(), ", "))
	}

	if err != nil {
		return nil, err
	}

	return senders, nil
}
