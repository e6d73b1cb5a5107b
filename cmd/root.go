package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/drivesign/internal/application"
)

var rootCmd = &cobra.Command{
	Use:     application.AppName,
	Short:   "Daily Aliyun Drive sign-in with notifications",
	Version: application.Version,
	Long: `drivesign refreshes Aliyun Drive credentials, performs the daily sign-in
for every configured account and sends the result to the enabled
notification channels (DingTalk, WeCom, ServerChan, PushDeer, PushPlus,
Telegram, Slack, SMTP).

Configuration is read from an INI file (--config, default config.ini) or
from environment variables (--env), for example inside a scheduled
GitHub Actions workflow.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}
