package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// SessionReader is the view of the session store the stats builder needs.
type SessionReader interface {
	GetRecentSessions(limit int) ([]models.Session, error)
	Totals() (sessions, calls, successes, failures int, err error)
}

// UsageReader replays the durable usage log.
type UsageReader interface {
	ReadUsage() ([]models.ToolUsageRecord, error)
}

// defaultSummaryLimit caps the most-used-tools and recent-failures lists
// when the caller does not ask for a specific length.
const defaultSummaryLimit = 5

// StatsService aggregates session and usage history into summaries.
type StatsService interface {
	Summary(limit int) (*models.SessionSummary, error)
	FormatResume() (string, error)
}

type statsService struct {
	sessions SessionReader
	usage    UsageReader
}

// NewStatsService builds a StatsService over the session store and the
// usage log.
func NewStatsService(sessions SessionReader, usage UsageReader) StatsService {
	return &statsService{sessions: sessions, usage: usage}
}

// Summary aggregates all sessions and the usage log into a SessionSummary.
// limit caps the most-used-tools and recent-failures lists; zero or a
// negative value applies the default. An empty history yields a
// zero-valued summary, not an error.
func (s *statsService) Summary(limit int) (*models.SessionSummary, error) {
	if limit <= 0 {
		limit = defaultSummaryLimit
	}
	totalSessions, totalCalls, totalSuccesses, totalFailures, err := s.sessions.Totals()
	if err != nil {
		return nil, fmt.Errorf("reading session totals: %w", err)
	}

	summary := &models.SessionSummary{
		TotalSessions:  totalSessions,
		TotalCalls:     totalCalls,
		TotalSuccesses: totalSuccesses,
		TotalFailures:  totalFailures,
	}

	recent, err := s.sessions.GetRecentSessions(1)
	if err != nil {
		return nil, fmt.Errorf("reading recent sessions: %w", err)
	}
	if len(recent) > 0 {
		last := recent[0]
		summary.LastSession = &last
	}

	records, err := s.usage.ReadUsage()
	if err != nil {
		return nil, fmt.Errorf("reading usage log: %w", err)
	}

	summary.MostUsedTools = mostUsedTools(records, limit)
	summary.RecentFailures = recentFailures(records, limit)

	return summary, nil
}

// mostUsedTools folds usage records into per-tool patterns and returns the
// top n by use count, most used first. Equal counts keep first-seen order.
func mostUsedTools(records []models.ToolUsageRecord, n int) []models.ToolUsagePattern {
	byTool := make(map[string]*models.ToolUsagePattern)
	var order []string
	for _, rec := range records {
		p, ok := byTool[rec.ToolID]
		if !ok {
			p = &models.ToolUsagePattern{ToolID: rec.ToolID}
			byTool[rec.ToolID] = p
			order = append(order, rec.ToolID)
		}
		p.Uses++
		if rec.Success {
			p.Successes++
		}
		if rec.Timestamp.After(p.LastUsed) {
			p.LastUsed = rec.Timestamp
		}
	}

	patterns := make([]models.ToolUsagePattern, 0, len(order))
	for _, id := range order {
		p := *byTool[id]
		p.SuccessRate = float64(p.Successes) / float64(p.Uses)
		patterns = append(patterns, p)
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Uses > patterns[j].Uses
	})
	if len(patterns) > n {
		patterns = patterns[:n]
	}
	return patterns
}

// recentFailures returns the n newest failed usage records, newest first.
func recentFailures(records []models.ToolUsageRecord, n int) []models.ToolUsageRecord {
	var failures []models.ToolUsageRecord
	for _, rec := range records {
		if !rec.Success {
			failures = append(failures, rec)
		}
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Timestamp.After(failures[j].Timestamp)
	})
	if len(failures) > n {
		failures = failures[:n]
	}
	return failures
}

// FormatResume renders the summary as a short human-readable briefing meant
// to be pasted at the start of a new working session.
func (s *statsService) FormatResume() (string, error) {
	summary, err := s.Summary(0)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Where you left off\n\n")
	fmt.Fprintf(&b, "Sessions: %d, tool calls: %d (%d ok / %d failed)\n",
		summary.TotalSessions, summary.TotalCalls, summary.TotalSuccesses, summary.TotalFailures)

	if summary.LastSession != nil {
		last := summary.LastSession
		state := "open"
		if last.EndedAt != nil {
			state = "closed"
		}
		fmt.Fprintf(&b, "Last session: %s (%s, started %s, %d calls)\n",
			last.ID, state, last.StartedAt.Format("2006-01-02 15:04"), last.ToolCalls)
	}

	if len(summary.MostUsedTools) > 0 {
		b.WriteString("\n## Most used tools\n")
		for _, p := range summary.MostUsedTools {
			fmt.Fprintf(&b, "- %s: %d uses, %d ok\n", p.ToolID, p.Uses, p.Successes)
		}
	}

	if len(summary.RecentFailures) > 0 {
		b.WriteString("\n## Recent failures\n")
		for _, rec := range summary.RecentFailures {
			line := fmt.Sprintf("- %s: %s", rec.ToolID, rec.Need)
			if rec.Notes != "" {
				line += " (" + rec.Notes + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String(), nil
}
