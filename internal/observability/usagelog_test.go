package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

func TestUsageLog_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learning", "usage_log.jsonl")
	log, err := NewJSONLUsageLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = log.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	records := []models.ToolUsageRecord{
		{SessionID: "S-00001", ToolID: "exporter", Need: "export docs", Success: true, Timestamp: now},
		{SessionID: "S-00001", ToolID: "renderer", Need: "render pdf", Success: false, Notes: "timeout", Timestamp: now.Add(time.Second)},
	}
	for _, rec := range records {
		if err := log.AppendUsage(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := log.ReadUsage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Append order is preserved.
	if got[0].ToolID != "exporter" || got[1].ToolID != "renderer" {
		t.Errorf("unexpected order: %s, %s", got[0].ToolID, got[1].ToolID)
	}
	if got[1].Notes != "timeout" || got[1].Success {
		t.Errorf("unexpected record: %+v", got[1])
	}
}

func TestUsageLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_log.jsonl")
	content := `{"tool_id":"exporter","success":true}
this line is not JSON
{"tool_id":"renderer","success":false}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	log, err := NewJSONLUsageLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = log.Close() }()

	got, err := log.ReadUsage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected malformed line skipped, got %d records", len(got))
	}
}

func TestUsageLog_MissingFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_log.jsonl")
	log, err := NewJSONLUsageLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing log: %v", err)
	}

	got, err := log.ReadUsage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
