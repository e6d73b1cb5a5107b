package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inovacc/drivesign/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration without contacting any service",
	Long: `Load and validate the configuration, then show the accounts, the state
backend and which credential keys each enabled channel has.

Examples:
  drivesign check
  drivesign check --env`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(extractGlobalFlags(cmd))
	if err != nil {
		return err
	}

	printConfig(cmd.OutOrStdout(), cfg)

	return nil
}

// printConfig writes a summary of cfg without revealing secret values
func printConfig(w io.Writer, cfg *model.Config) {
	source := string(cfg.Source)
	if cfg.Path != "" {
		source += " (" + cfg.Path + ")"
	}

	_, _ = fmt.Fprintln(w, "Configuration OK")
	_, _ = fmt.Fprintln(w, "================")
	_, _ = fmt.Fprintf(w, "Source:         %s\n", source)
	_, _ = fmt.Fprintf(w, "Accounts:       %d\n", len(cfg.RefreshTokens))
	_, _ = fmt.Fprintf(w, "State backend:  %s\n", cfg.StateBackend)

	switch cfg.StateBackend {
	case model.StateBolt:
		_, _ = fmt.Fprintf(w, "State path:     %s\n", cfg.StatePath)
	case model.StateGitHub:
		_, _ = fmt.Fprintf(w, "Secret:         %s/%s\n", cfg.GitHub.Repository, cfg.GitHub.SecretName)
	}

	if file := cfg.LogFile(); file != "" {
		_, _ = fmt.Fprintf(w, "Log file:       %s (%s)\n", file, cfg.LogLevel)
	}

	if len(cfg.PushTypes) == 0 {
		_, _ = fmt.Fprintln(w, "Channels:       none")
		return
	}

	_, _ = fmt.Fprintln(w, "Channels:")

	for _, name := range cfg.PushTypes {
		var set, unset []string

		for _, key := range model.ChannelKeys[model.ChannelType(name)] {
			if cfg.Channels.Get(key) != "" {
				set = append(set, key)
			} else {
				unset = append(unset, key)
			}
		}

		_, _ = fmt.Fprintf(w, "  %-11s set: %s\n", name, orNone(set))

		if len(unset) > 0 {
			_, _ = fmt.Fprintf(w, "  %-11s unset: %s\n", "", strings.Join(unset, ", "))
		}
	}
}

func orNone(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}

	return strings.Join(keys, ", ")
}
