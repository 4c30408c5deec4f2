package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// UsageLog is the append-only journal of tool-usage records. The journal is
// the authoritative learning history: the weight table can be rebuilt from
// it at any time. Records are one JSON object per line and never rewritten.
type UsageLog interface {
	AppendUsage(rec models.ToolUsageRecord) error
	ReadUsage() ([]models.ToolUsageRecord, error)
	Close() error
}

type jsonlUsageLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLUsageLog creates a UsageLog backed by a JSONL file at the given
// path, creating parent directories as needed.
func NewJSONLUsageLog(path string) (UsageLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating usage log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening usage log: %w", err)
	}
	return &jsonlUsageLog{path: path, file: f}, nil
}

// AppendUsage appends one record to the journal.
func (l *jsonlUsageLog) AppendUsage(rec models.ToolUsageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling usage record: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing usage record: %w", err)
	}
	return nil
}

// ReadUsage returns all records in append order. Malformed lines are
// skipped rather than failing the whole read.
func (l *jsonlUsageLog) ReadUsage() ([]models.ToolUsageRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening usage log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []models.ToolUsageRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec models.ToolUsageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning usage log: %w", err)
	}
	return records, nil
}

// Close closes the underlying journal file.
func (l *jsonlUsageLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing usage log: %w", err)
	}
	return nil
}
