package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var rankJSON bool

var rankCmd = &cobra.Command{
	Use:   "rank <tool-id>...",
	Short: "Rank tools by learned weight and success rate",
	Long: `Rank the given tool IDs by learned weight multiplied by observed
success rate, best first. Tools with no history use the default weight
and a neutral success-rate prior.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}

		ranked, err := Router.RankTools(args)
		if err != nil {
			return fmt.Errorf("ranking tools: %w", err)
		}

		if rankJSON {
			data, err := json.MarshalIndent(ranked, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting ranking: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("%-4s %-24s %-8s %-6s %-8s %s\n", "#", "TOOL", "WEIGHT", "USES", "RATE", "SCORE")
		for i, rt := range ranked {
			fmt.Printf("%-4d %-24s %-8.2f %-6d %-8.2f %.3f\n",
				i+1, rt.ToolID, rt.Weight, rt.Uses, rt.SuccessRate, rt.Score)
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(rankCmd)
}
