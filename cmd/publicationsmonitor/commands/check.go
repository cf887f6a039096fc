package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs a single check cycle and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.Monitor().Check(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "found %d, pending %d, notified %d\n", res.Found, res.Pending, res.Notified)
		return err
	},
}
