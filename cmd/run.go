package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inovacc/drivesign/internal/config"
	"github.com/inovacc/drivesign/internal/core"
	"github.com/inovacc/drivesign/internal/drive"
	"github.com/inovacc/drivesign/internal/model"
	"github.com/inovacc/drivesign/internal/notify"
	"github.com/inovacc/drivesign/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Refresh credentials, sign in and notify",
	Long: `Refresh every configured account, perform the daily sign-in and send the
result to the channels listed in push_types. Rotated refresh tokens are
saved to the state backend at the end of the run.

State backends:
  ini     rewrite refresh_tokens in the configuration file (default)
  bolt    keep tokens and cached access tokens in a local bbolt file
  github  update a GitHub Actions repository secret

Examples:
  drivesign run
  drivesign run --config /etc/drivesign.ini --state bolt
  REFRESH_TOKENS=... PUSH_TYPES=telegram drivesign run --env`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("state", "", "Override state_backend (ini, bolt, github)")
	runCmd.Flags().String("state-path", "", "Override state_path for the bolt backend")
	runCmd.Flags().Bool("summary", true, "Print a summary when the run finishes")
}

func runRun(cmd *cobra.Command, _ []string) error {
	flags := extractGlobalFlags(cmd)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if err := applyStateFlags(cmd, cfg); err != nil {
		return err
	}

	log, err := setupLogger(cfg, flags)
	if err != nil {
		return err
	}

	defer func() { _ = log.Close() }()

	senders, err := buildSenders(cfg.PushTypes, cfg, log.Logger)
	if err != nil {
		return err
	}

	store, err := state.New(cfg)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := core.NewRunner(
		drive.NewClient(drive.WithLogger(log.Logger)),
		notify.NewDispatcher(log.Logger, senders...),
		store,
		core.WithLogger(log.Logger),
	)

	report, err := runner.Run(ctx)

	if summary, _ := cmd.Flags().GetBool("summary"); summary && len(report.Accounts) > 0 {
		core.PrintSummary(cmd.OutOrStdout(), report)
	}

	return err
}

// applyStateFlags applies --state and --state-path and re-validates.
func applyStateFlags(cmd *cobra.Command, cfg *model.Config) error {
	backend, _ := cmd.Flags().GetString("state")
	path, _ := cmd.Flags().GetString("state-path")

	if backend == "" && path == "" {
		return nil
	}

	if backend != "" {
		cfg.StateBackend = model.StateBackend(backend)
		cfg.GitHub.Enabled = cfg.StateBackend == model.StateGitHub
	}

	if path != "" {
		cfg.StatePath = path
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("--state: %w", err)
	}

	return nil
}
