package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Dashboard panel indices.
const (
	panelWeights = iota
	panelSessions
	panelMetrics
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	weights     []weightSnapshot
	sessions    *sessionSnapshot
	metricsData *metricsSnapshot

	// State.
	loading bool
	err     error
}

type weightSnapshot struct {
	toolID string
	weight float64
	uses   int
}

type sessionSnapshot struct {
	totalSessions int
	totalCalls    int
	successes     int
	failures      int
	lastSessionID string
}

type metricsSnapshot struct {
	routesMatched int
	routesMissed  int
	usageReports  int
	conversations int
	eventCount    int
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	weights  []weightSnapshot
	sessions *sessionSnapshot
	metrics  *metricsSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	weightHigh    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	weightNeutral = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	weightLow     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelWeights,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.weights = msg.weights
		m.sessions = msg.sessions
		m.metricsData = msg.metrics
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Toolbrain Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	weightsPanel := m.renderWeightsPanel()
	sessionsPanel := m.renderSessionsPanel()
	metricsPanel := m.renderMetricsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		weightsPanel = m.applyPanelStyle(panelWeights, weightsPanel, colWidth-4)
		sessionsPanel = m.applyPanelStyle(panelSessions, sessionsPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, weightsPanel, sessionsPanel, metricsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		weightsPanel = m.applyPanelStyle(panelWeights, weightsPanel, panelWidth)
		sessionsPanel = m.applyPanelStyle(panelSessions, sessionsPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, weightsPanel, sessionsPanel, metricsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderWeightsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Learned weights"))
	b.WriteString("\n")

	if len(m.weights) == 0 {
		b.WriteString("  No learned weights yet.")
		return b.String()
	}

	for _, w := range m.weights {
		label := fmt.Sprintf("  %-20s %.2f (%d uses)", w.toolID, w.weight, w.uses)
		b.WriteString(styleForWeight(w.weight).Render(label))
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderSessionsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sessions"))
	b.WriteString("\n")

	if m.sessions == nil {
		b.WriteString("  No sessions recorded.")
		return b.String()
	}

	s := m.sessions
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Sessions", s.totalSessions))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Calls", s.totalCalls))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Successes", s.successes))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Failures", s.failures))
	if s.lastSessionID != "" {
		b.WriteString(fmt.Sprintf("\n  Last: %s", s.lastSessionID))
	}

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Matched", md.routesMatched},
		{"Missed", md.routesMissed},
		{"Reports", md.usageReports},
		{"Convs", md.conversations},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func styleForWeight(w float64) lipgloss.Style {
	switch {
	case w > 1.2:
		return weightHigh
	case w < 0.8:
		return weightLow
	default:
		return weightNeutral
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	// Load top weights.
	if WeightStore != nil {
		for _, w := range WeightStore.TopWeights(10) {
			result.weights = append(result.weights, weightSnapshot{
				toolID: w.ToolID,
				weight: w.Weight,
				uses:   w.TotalUses,
			})
		}
	}

	// Load session totals.
	if Stats != nil {
		summary, err := Stats.Summary(0)
		if err != nil {
			result.err = fmt.Errorf("loading sessions: %w", err)
			return result
		}
		snap := &sessionSnapshot{
			totalSessions: summary.TotalSessions,
			totalCalls:    summary.TotalCalls,
			successes:     summary.TotalSuccesses,
			failures:      summary.TotalFailures,
		}
		if summary.LastSession != nil {
			snap.lastSessionID = summary.LastSession.ID
		}
		result.sessions = snap
	}

	// Load metrics from MetricsCalc.
	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			routesMatched: metrics.RoutesMatched,
			routesMissed:  metrics.RoutesMissed,
			usageReports:  metrics.UsageReports,
			conversations: metrics.ConversationsCreated,
			eventCount:    metrics.EventCount,
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for weights, sessions, and metrics",
	Long: `Launch an interactive terminal dashboard showing learned tool
weights, session totals, and routing metrics in a live view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if WeightStore == nil {
			return fmt.Errorf("weight store not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
