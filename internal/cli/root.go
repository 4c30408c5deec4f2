package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "toolbrain",
	Short: "toolbrain - need-to-capability router with learned ranking",
	Long: `toolbrain routes free-text needs to registered tool capabilities,
ranks candidates using historically observed success and failure
outcomes, and keeps a durable record of sessions and conversations.

It serves the routing core over HTTP and MCP, and provides CLI commands
for querying, reporting usage, ranking tools, and managing conversations.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("toolbrain %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
