package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display routing and conversation metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include routes served and missed, usage reports by tool,
conversation activity, and streaming connection counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Routes matched:", metrics.RoutesMatched)
		fmt.Printf("  %-24s %d\n", "Routes missed:", metrics.RoutesMissed)
		fmt.Printf("  %-24s %d\n", "Usage reports:", metrics.UsageReports)
		fmt.Printf("  %-24s %d\n", "Usage failures:", metrics.UsageFailures)
		fmt.Printf("  %-24s %d\n", "Conversations created:", metrics.ConversationsCreated)
		fmt.Printf("  %-24s %d\n", "Messages appended:", metrics.MessagesAppended)
		fmt.Printf("  %-24s %d\n", "Streams opened:", metrics.StreamsOpened)

		if len(metrics.RoutesByCapability) > 0 {
			fmt.Println("\n  Routes by capability:")
			for capID, count := range metrics.RoutesByCapability {
				fmt.Printf("    %-22s %d\n", capID+":", count)
			}
		}

		if len(metrics.ReportsByTool) > 0 {
			fmt.Println("\n  Reports by tool:")
			for toolID, count := range metrics.ReportsByTool {
				fmt.Printf("    %-22s %d\n", toolID+":", count)
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses strings like "7d", "24h", or "30d" into the
// corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	return now.Add(-d), nil
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "time window (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
