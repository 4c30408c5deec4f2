package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/toolbrain/internal/core"
)

var (
	reportNeed    string
	reportFailed  bool
	reportNotes   string
	reportSession string
)

var reportCmd = &cobra.Command{
	Use:   "report <tool-id>",
	Short: "Report the outcome of using a tool",
	Long: `Report the outcome of using a tool for a need.

Success nudges the tool's learned weight up, failure nudges it down;
both are recorded in the session history and the append-only usage log.
Outcomes are successes unless --failed is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}
		if reportNeed == "" {
			return fmt.Errorf("--need is required")
		}

		ack, err := Router.ReportUsage(core.UsageReport{
			ToolID:    args[0],
			Need:      reportNeed,
			Success:   !reportFailed,
			Notes:     reportNotes,
			SessionID: reportSession,
		})
		if err != nil {
			return fmt.Errorf("reporting usage: %w", err)
		}

		outcome := "success"
		if reportFailed {
			outcome = "failure"
		}
		fmt.Printf("Logged %s for %s (session %s)\n", outcome, args[0], ack.SessionID)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportNeed, "need", "", "the need the tool was used for (required)")
	reportCmd.Flags().BoolVar(&reportFailed, "failed", false, "report a failure instead of a success")
	reportCmd.Flags().StringVar(&reportNotes, "notes", "", "free-text notes about the outcome")
	reportCmd.Flags().StringVar(&reportSession, "session", "", "session to attribute the report to")
	rootCmd.AddCommand(reportCmd)
}
