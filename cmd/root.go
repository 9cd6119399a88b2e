package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	veryVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dota2-notify-bot",
	Short: "Telegram notifications about Dota 2 matches of you and your Steam friends",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevel(verbose, veryVerbose)
		slog.Debug("main: Command-line flags parsed", "command", cmd.Name(), "verbose", verbose, "very_verbose", veryVerbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (LevelInfo)")
	rootCmd.PersistentFlags().BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging (LevelDebug)")

	rootCmd.AddCommand(serveCmd, checkCmd)
}

// Execute runs the command picked on the command line
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// setLogLevel installs a JSON slog handler on stdout, warn level unless asked otherwise
func setLogLevel(verbose, veryVerbose bool) slog.Level {
	logLevel := slog.LevelWarn
	if veryVerbose {
		logLevel = slog.LevelDebug
	} else if verbose {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	return logLevel
}
