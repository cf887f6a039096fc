package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testNotificationCmd)
}

var testNotificationCmd = &cobra.Command{
	Use:   "test-notification",
	Short: "Sends a test notification through every configured channel.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Monitor().SendTest(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "test notification sent")
		return nil
	},
}
