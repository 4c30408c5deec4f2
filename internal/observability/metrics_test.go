package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMetricsCalculator_Calculate(t *testing.T) {
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = log.Close() }()

	base := time.Now().UTC()
	events := []Event{
		{Time: base, Level: "INFO", Type: EventRouteMatched, Data: map[string]any{"capability_id": "export-docx"}},
		{Time: base.Add(time.Second), Level: "INFO", Type: EventRouteMatched, Data: map[string]any{"capability_id": "export-docx"}},
		{Time: base.Add(2 * time.Second), Level: "WARN", Type: EventRouteMissed},
		{Time: base.Add(3 * time.Second), Level: "INFO", Type: EventUsageReported, Data: map[string]any{"tool_id": "exporter", "success": true}},
		{Time: base.Add(4 * time.Second), Level: "INFO", Type: EventUsageReported, Data: map[string]any{"tool_id": "exporter", "success": false}},
		{Time: base.Add(5 * time.Second), Level: "INFO", Type: EventConversationCreated},
		{Time: base.Add(6 * time.Second), Level: "INFO", Type: EventMessageAppended},
		{Time: base.Add(7 * time.Second), Level: "INFO", Type: EventStreamOpened},
		{Time: base.Add(8 * time.Second), Level: "INFO", Type: EventRegistryReloaded},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.RoutesMatched != 2 || m.RoutesMissed != 1 {
		t.Errorf("expected 2 matched / 1 missed, got %d/%d", m.RoutesMatched, m.RoutesMissed)
	}
	if m.RoutesByCapability["export-docx"] != 2 {
		t.Errorf("expected 2 routes to export-docx, got %d", m.RoutesByCapability["export-docx"])
	}
	if m.UsageReports != 2 || m.UsageFailures != 1 {
		t.Errorf("expected 2 reports / 1 failure, got %d/%d", m.UsageReports, m.UsageFailures)
	}
	if m.ReportsByTool["exporter"] != 2 {
		t.Errorf("expected 2 reports for exporter, got %d", m.ReportsByTool["exporter"])
	}
	if m.ConversationsCreated != 1 || m.MessagesAppended != 1 || m.StreamsOpened != 1 || m.RegistryReloads != 1 {
		t.Errorf("unexpected lifecycle counts: %+v", m)
	}
	if m.EventCount != len(events) {
		t.Errorf("expected %d events, got %d", len(events), m.EventCount)
	}
	if m.OldestEvent == nil || m.NewestEvent == nil {
		t.Fatal("expected oldest and newest timestamps")
	}
	if !m.NewestEvent.After(*m.OldestEvent) {
		t.Error("expected newest after oldest")
	}
}

func TestMetricsCalculator_SinceCutoff(t *testing.T) {
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = log.Close() }()

	base := time.Now().UTC()
	old := Event{Time: base.Add(-48 * time.Hour), Level: "INFO", Type: EventRouteMatched}
	recent := Event{Time: base, Level: "INFO", Type: EventRouteMatched}
	for _, e := range []Event{old, recent} {
		if err := log.Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RoutesMatched != 1 || m.EventCount != 1 {
		t.Errorf("expected only the recent event counted, got %+v", m)
	}
}
