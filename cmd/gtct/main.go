// gtct is the operator CLI: it renders the daily and party reports of a client
// straight from the database and writes them to files or to the export bucket.
package main

import (
	"os"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = config.GetLogger()

	rootCmd = &cobra.Command{
		Use:           "gtct",
		Short:         "Operator tools for the GTCT analytics backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to info")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if logLevel == "" {
			logLevel = "info"
		}
		config.ApplyLogLevel(logLevel)
	}
	rootCmd.AddCommand(newReportCmd())
}

// connect opens the database, and redis when configured, for commands that need data.
func connect() {
	config.ConnectDatabaseWithRetry()
	if config.GetSettings().Redis.Address != "" {
		config.ConnectRedisWithRetry()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		Log.WithFields(logrus.Fields{"command": "gtct"}).Error(err)
		os.Exit(1)
	}
}
