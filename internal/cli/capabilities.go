package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var capabilitiesJSON bool

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List registered capabilities and their owning tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}

		inv, err := Router.ListCapabilities()
		if err != nil {
			return fmt.Errorf("listing capabilities: %w", err)
		}

		if capabilitiesJSON {
			data, err := json.MarshalIndent(inv, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting inventory: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("%d capabilities across %d tools\n\n", inv.TotalCapabilities, inv.TotalTools)
		for _, c := range inv.Capabilities {
			fmt.Printf("%-28s -> %s\n", c.ID, c.ToolID)
			if c.Description != "" {
				fmt.Printf("    %s\n", c.Description)
			}
			fmt.Printf("    keywords: %s\n", strings.Join(c.Keywords, ", "))
		}
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the capability map from disk",
	Long: `Re-read and validate capability_map.yaml, atomically swapping in the
new registry. On validation failure the previous registry stays active.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if RegistryMgr == nil {
			return fmt.Errorf("registry not initialized")
		}

		if err := RegistryMgr.Load(); err != nil {
			return fmt.Errorf("reloading registry: %w", err)
		}

		reg := RegistryMgr.Current()
		fmt.Printf("Reloaded capability map (version %s, %d capabilities)\n",
			reg.Version(), len(reg.Capabilities()))
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().BoolVar(&capabilitiesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(reloadCmd)
}
