package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/internal/storage"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

const testCapabilityMap = `version: "1.0"
tools:
  - id: exporter
    name: Document Exporter
    kind: network-service
    address: 127.0.0.1
    port: 7801
  - id: renderer
    name: PDF Renderer
    kind: script
    path: bin/render
capabilities:
  - id: export-docx
    description: Export documents to docx
    keywords: [export, docx, word]
    tool_id: exporter
  - id: render-pdf
    description: Render files to PDF
    keywords: [render, pdf]
    tool_id: renderer
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "capability_map.yaml"), []byte(testCapabilityMap), 0o644); err != nil {
		t.Fatalf("writing capability map: %v", err)
	}

	registry := core.NewRegistryManager(dir)
	if err := registry.Load(); err != nil {
		t.Fatalf("loading registry: %v", err)
	}

	usageLog, err := observability.NewJSONLUsageLog(filepath.Join(dir, "learning", "usage_log.jsonl"))
	if err != nil {
		t.Fatalf("opening usage log: %v", err)
	}
	t.Cleanup(func() { _ = usageLog.Close() })

	eventLog, err := observability.NewJSONLEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("opening event log: %v", err)
	}
	t.Cleanup(func() { _ = eventLog.Close() })

	weights := storage.NewLearningStoreManager(dir)
	sessions := storage.NewSessionStoreManager(dir, "S", 5)
	conversations := storage.NewConversationStoreManager(dir, "local", models.ClosedPolicyReject)

	router := core.NewNeedRouter(registry, weights, sessions, usageLog)
	stats := core.NewStatsService(sessions, usageLog)

	return NewServer(router, stats, conversations, observability.NewMetricsCalculator(eventLog), "test")
}

func TestHandleQuery(t *testing.T) {
	s := newTestServer(t)

	result, out, err := s.handleQuery(context.Background(), nil, queryInput{Need: "export this to docx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	if out.CapabilityID != "export-docx" || out.ToolID != "exporter" {
		t.Errorf("unexpected route: %+v", out)
	}
	if out.Confidence != "high" {
		t.Errorf("expected high confidence, got %s", out.Confidence)
	}
}

func TestHandleQuery_Errors(t *testing.T) {
	s := newTestServer(t)

	result, _, err := s.handleQuery(context.Background(), nil, queryInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result for empty need")
	}

	result, _, err = s.handleQuery(context.Background(), nil, queryInput{Need: "bake a cake"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result for unmatched need")
	}
}

func TestHandleReportUsageAndRank(t *testing.T) {
	s := newTestServer(t)

	result, ack, err := s.handleReportUsage(context.Background(), nil, reportUsageInput{
		ToolID: "exporter", Need: "export docs", Success: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	if !ack.Logged || ack.SessionID != "S-00001" {
		t.Errorf("unexpected ack: %+v", ack)
	}

	_, ranked, err := s.handleRankTools(context.Background(), nil, rankToolsInput{
		ToolIDs: []string{"renderer", "exporter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked.Ranking) != 2 {
		t.Fatalf("expected 2 ranked tools, got %d", len(ranked.Ranking))
	}
	// The successful report pushed exporter above the neutral renderer.
	if ranked.Ranking[0].ToolID != "exporter" {
		t.Errorf("expected exporter first, got %s", ranked.Ranking[0].ToolID)
	}
}

func TestHandleStatsAndResume(t *testing.T) {
	s := newTestServer(t)

	if _, _, err := s.handleReportUsage(context.Background(), nil, reportUsageInput{
		ToolID: "exporter", Need: "export docs", Success: false, Notes: "timeout",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, stats, err := s.handleStats(context.Background(), nil, statsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalSessions != 1 || stats.TotalCalls != 1 || stats.TotalFailures != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.LastSessionID != "S-00001" {
		t.Errorf("expected last session S-00001, got %s", stats.LastSessionID)
	}
	if len(stats.MostUsedTools) != 1 || len(stats.RecentFailures) != 1 {
		t.Errorf("expected one tool and one failure, got %+v", stats)
	}

	if _, _, err := s.handleReportUsage(context.Background(), nil, reportUsageInput{
		ToolID: "renderer", Need: "render pdf", Success: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, stats, err = s.handleStats(context.Background(), nil, statsInput{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats.MostUsedTools) != 1 {
		t.Errorf("expected limit to cap the tool list, got %d entries", len(stats.MostUsedTools))
	}

	_, resume, err := s.handleResume(context.Background(), nil, resumeInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resume.Resume == "" {
		t.Error("expected non-empty resume")
	}
}

func TestHandleListCapabilities(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleListCapabilities(context.Background(), nil, listCapabilitiesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count != 2 || len(out.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities, got %+v", out)
	}
}

func TestConversationTools(t *testing.T) {
	s := newTestServer(t)

	_, conv, err := s.handleConversationCreate(context.Background(), nil, conversationCreateInput{
		Topic: "debug the exporter", Owner: "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID == "" || conv.Status != "active" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	_, conv, err = s.handleAppendMessage(context.Background(), nil, appendMessageInput{
		ConversationID: conv.ID, Role: "user", Content: "fails on large files", Surface: "mcp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.MessageCount != 1 {
		t.Errorf("expected 1 message, got %d", conv.MessageCount)
	}

	_, conv, err = s.handleLinkArtifact(context.Background(), nil, linkArtifactInput{
		ConversationID: conv.ID, Type: "ticket", ArtifactID: "EXP-42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, list, err := s.handleListConversations(context.Background(), nil, listConversationsInput{Owner: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("expected 1 conversation, got %d", list.Count)
	}

	_, conv, err = s.handleCloseConversation(context.Background(), nil, closeConversationInput{
		ConversationID: conv.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Status != "closed" {
		t.Errorf("expected closed status, got %s", conv.Status)
	}

	// Default listing covers active conversations only; "all" widens it.
	_, list, err = s.handleListConversations(context.Background(), nil, listConversationsInput{Owner: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("expected closed conversation excluded by default, got %d", list.Count)
	}
	_, list, err = s.handleListConversations(context.Background(), nil, listConversationsInput{Owner: "alice", Status: "all"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("expected closed conversation under status=all, got %d", list.Count)
	}

	result, _, err := s.handleAppendMessage(context.Background(), nil, appendMessageInput{
		ConversationID: "", Role: "user", Content: "x", Surface: "mcp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result for missing conversation_id")
	}
}

func TestHandleGetMetrics(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleGetMetrics(context.Background(), nil, getMetricsInput{Since: "24h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.EventCount != 0 {
		t.Errorf("expected empty metrics, got %+v", out)
	}

	result, _, err := s.handleGetMetrics(context.Background(), nil, getMetricsInput{Since: "yesterday"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result for bad duration")
	}
}

func TestParseSince(t *testing.T) {
	now := time.Now().UTC()

	got, err := parseSince("7d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := now.AddDate(0, 0, -7)
	if got.Sub(want) > time.Minute || want.Sub(got) > time.Minute {
		t.Errorf("expected about 7 days ago, got %v", got)
	}

	if _, err := parseSince("x"); err == nil {
		t.Error("expected error for too-short duration")
	}
	if _, err := parseSince("7w"); err == nil {
		t.Error("expected error for unsupported suffix")
	}
}
