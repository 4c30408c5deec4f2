package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	brainmcp "github.com/valter-silva-au/toolbrain/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the toolbrain MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the toolbrain MCP server on stdio",
	Long: `Start the toolbrain MCP server on stdio transport.

The server exposes toolbrain functionality as MCP tools that AI coding
assistants can call: brain_query, brain_report_usage, brain_rank_tools,
brain_stats, brain_resume, brain_list_capabilities, and the
conversation_* tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}

		srv := brainmcp.NewServer(Router, Stats, ConversationStore, MetricsCalc, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
