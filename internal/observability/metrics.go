package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	RoutesMatched        int            `json:"routes_matched"`
	RoutesMissed         int            `json:"routes_missed"`
	UsageReports         int            `json:"usage_reports"`
	UsageFailures        int            `json:"usage_failures"`
	RoutesByCapability   map[string]int `json:"routes_by_capability"`
	ReportsByTool        map[string]int `json:"reports_by_tool"`
	ConversationsCreated int            `json:"conversations_created"`
	MessagesAppended     int            `json:"messages_appended"`
	StreamsOpened        int            `json:"streams_opened"`
	StreamsClosed        int            `json:"streams_closed"`
	RegistryReloads      int            `json:"registry_reloads"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// countedEventTypes lists every type the aggregation below understands.
// Filtering the read to these keeps EventCount consistent with the
// per-type counters.
var countedEventTypes = []string{
	EventRouteMatched,
	EventRouteMissed,
	EventUsageReported,
	EventRegistryReloaded,
	EventConversationCreated,
	EventMessageAppended,
	EventStreamOpened,
	EventStreamClosed,
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: since, Types: countedEventTypes})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		RoutesByCapability: make(map[string]int),
		ReportsByTool:      make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventRouteMatched:
			m.RoutesMatched++
			if capID, ok := event.Data["capability_id"].(string); ok {
				m.RoutesByCapability[capID]++
			}
		case EventRouteMissed:
			m.RoutesMissed++
		case EventUsageReported:
			m.UsageReports++
			if toolID, ok := event.Data["tool_id"].(string); ok {
				m.ReportsByTool[toolID]++
			}
			if success, ok := event.Data["success"].(bool); ok && !success {
				m.UsageFailures++
			}
		case EventConversationCreated:
			m.ConversationsCreated++
		case EventMessageAppended:
			m.MessagesAppended++
		case EventStreamOpened:
			m.StreamsOpened++
		case EventStreamClosed:
			m.StreamsClosed++
		case EventRegistryReloaded:
			m.RegistryReloads++
		}
	}

	return m, nil
}
