package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single sweep over all users and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.checker.Sweep(cmd.Context())
		if err != nil {
			slog.Error("main: Sweep failed", "error", err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "users: %d, targets: %d, notified: %d, failed: %d\n",
			report.Users, report.Targets, report.Notified, report.Failed)

		return nil
	},
}
