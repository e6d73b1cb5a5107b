package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inovacc/drivesign/internal/model"
	"github.com/inovacc/drivesign/internal/notify"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Notification channel commands",
}

var pushTestCmd = &cobra.Command{
	Use:   "test [channel...]",
	Short: "Send a test notification",
	Long: `Send a test notification to verify channel configuration.

Without arguments every channel in push_types is tested. Channel names
given as arguments are tested even when they are not enabled.

Examples:
  drivesign push test
  drivesign push test telegram smtp`,
	RunE: runPushTest,
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.AddCommand(pushTestCmd)

	pushTestCmd.Flags().Duration("timeout", 30*time.Second, "Overall timeout")
}

func runPushTest(cmd *cobra.Command, args []string) error {
	flags := extractGlobalFlags(cmd)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log, err := setupLogger(cfg, flags)
	if err != nil {
		return err
	}

	defer func() { _ = log.Close() }()

	names := cfg.PushTypes
	if len(args) > 0 {
		names = model.NormalizeList(args...)
	}

	if len(names) == 0 {
		return fmt.Errorf("no channels enabled: set push_types or name channels as arguments")
	}

	senders, err := buildSenders(names, cfg, log.Logger)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Sending test notification...")

	results := notify.NewDispatcher(log.Logger, senders...).Dispatch(ctx, notify.NewTestMessage())

	for _, r := range results {
		if r.OK() {
			_, _ = fmt.Fprintf(out, "  ✓ %s\n", r.Channel)
		} else {
			_, _ = fmt.Fprintf(out, "  ✗ %s: %v\n", r.Channel, r.Err)
		}
	}

	if failed := notify.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d channels failed", len(failed), len(results))
	}

	return nil
}
