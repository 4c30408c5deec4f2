package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Inspect and maintain the learned weight table",
}

var learnTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the highest-weighted tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if WeightStore == nil {
			return fmt.Errorf("weight store not initialized")
		}

		weights := WeightStore.TopWeights(10)
		if len(weights) == 0 {
			fmt.Println("No learned weights yet. Report some tool usage first.")
			return nil
		}

		fmt.Printf("%-24s %-8s %-6s %s\n", "TOOL", "WEIGHT", "USES", "SUCCESSES")
		for _, w := range weights {
			fmt.Printf("%-24s %-8.2f %-6d %d\n", w.ToolID, w.Weight, w.TotalUses, w.Successes)
		}
		return nil
	},
}

var learnRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the weight table from the usage log",
	Long: `Discard the current weight table and replay the append-only usage log
in order. The log is authoritative; use this after hand-editing or
corrupting weights.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if WeightStore == nil {
			return fmt.Errorf("weight store not initialized")
		}
		if UsageLog == nil {
			return fmt.Errorf("usage log not available")
		}

		records, err := UsageLog.ReadUsage()
		if err != nil {
			return fmt.Errorf("reading usage log: %w", err)
		}

		if err := WeightStore.RebuildFromRecords(records); err != nil {
			return fmt.Errorf("rebuilding weights: %w", err)
		}

		fmt.Printf("Rebuilt weight table from %d usage records\n", len(records))
		return nil
	},
}

func init() {
	learnCmd.AddCommand(learnTopCmd)
	learnCmd.AddCommand(learnRebuildCmd)
	rootCmd.AddCommand(learnCmd)
}
