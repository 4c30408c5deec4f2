package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsJSON  bool
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show overall session and usage totals",
	Long: `Show aggregate statistics across all sessions: total tool calls,
success/failure counts, the most-used tools, and recent failures.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Stats == nil {
			return fmt.Errorf("stats service not initialized")
		}

		summary, err := Stats.Summary(statsLimit)
		if err != nil {
			return fmt.Errorf("building summary: %w", err)
		}

		if statsJSON {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting summary: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Sessions: %d\n", summary.TotalSessions)
		fmt.Printf("Calls:    %d (%d ok / %d failed)\n",
			summary.TotalCalls, summary.TotalSuccesses, summary.TotalFailures)

		if summary.LastSession != nil {
			fmt.Printf("Last:     %s (started %s)\n",
				summary.LastSession.ID, summary.LastSession.StartedAt.Format("2006-01-02 15:04"))
		}

		if len(summary.MostUsedTools) > 0 {
			fmt.Println("\nMost used tools:")
			for _, p := range summary.MostUsedTools {
				fmt.Printf("  %-24s %d uses, %.0f%% ok\n", p.ToolID, p.Uses, p.SuccessRate*100)
			}
		}

		if len(summary.RecentFailures) > 0 {
			fmt.Println("\nRecent failures:")
			for _, rec := range summary.RecentFailures {
				fmt.Printf("  %-24s %s\n", rec.ToolID, rec.Need)
			}
		}
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Print a briefing of where the last session left off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Stats == nil {
			return fmt.Errorf("stats service not initialized")
		}

		resume, err := Stats.FormatResume()
		if err != nil {
			return fmt.Errorf("formatting resume: %w", err)
		}
		fmt.Print(resume)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "max entries in the tool and failure lists (default 5)")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resumeCmd)
}
