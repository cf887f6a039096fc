package commands

import (
	"os"

	"github.com/spf13/cobra"

	"PublicationsMonitor/internal/app"
)

var (
	runCheckNow         bool
	runTestNotification bool
	runNoPrompt         bool
)

func init() {
	runCmd.Flags().BoolVar(&runCheckNow, "check-now", false, "Run one check before the schedule starts.")
	runCmd.Flags().BoolVar(&runTestNotification, "test-notification", false, "Send a test notification before the schedule starts.")
	runCmd.Flags().BoolVar(&runNoPrompt, "no-prompt", false, "Do not read operator commands from stdin.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--check-now] [--test-notification] [--no-prompt]",
	Short: "Runs the scheduled monitor until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Run(ctx, app.RunOptions{
			CheckNow:         runCheckNow,
			TestNotification: runTestNotification,
			Prompt:           !runNoPrompt && !cfg.Prompt.Disabled,
			In:               os.Stdin,
			Out:              cmd.OutOrStdout(),
		})
	},
}
