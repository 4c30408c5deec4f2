package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query <need...>",
	Short: "Route a free-text need to the best capability",
	Long: `Route a free-text need to the best-matching registered capability.

The match is a keyword-overlap score refined by learned tool weights:
tools that have succeeded for you before rank higher.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}

		need := strings.Join(args, " ")
		result, err := Router.RouteNeed(need)
		if err != nil {
			return fmt.Errorf("routing need: %w", err)
		}

		if queryJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting result: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Capability: %s\n", result.CapabilityID)
		fmt.Printf("  Tool:       %s\n", result.ToolID)
		fmt.Printf("  Confidence: %s\n", result.Confidence)
		if result.Description != "" {
			fmt.Printf("  About:      %s\n", result.Description)
		}
		if result.Profile != "" {
			fmt.Printf("  Profile:    %s\n", result.Profile)
		}
		if len(result.AlsoRelevant) > 0 {
			fmt.Printf("  Also:       %s\n", strings.Join(result.AlsoRelevant, ", "))
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(queryCmd)
}
