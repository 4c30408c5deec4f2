package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// SessionStoreManager defines the interface for the session store under
// sessions/. Sessions group usage reports into work periods; they are
// closed, never deleted.
type SessionStoreManager interface {
	StartSession() (string, error)
	EnsureSession(id string) (string, error)
	RecordUsage(sessionID string, success bool) error
	CloseSession(id string) error
	GetSession(id string) (*models.Session, error)
	GetRecentSessions(limit int) ([]models.Session, error)
	Totals() (sessions, calls, successes, failures int, err error)
	Load() error
	Save() error
}

type fileSessionStore struct {
	basePath string
	prefix   string
	padding  int

	mu    sync.Mutex
	index models.SessionIndex
	byID  map[string]int
}

// NewSessionStoreManager creates a SessionStoreManager backed by YAML files
// under sessions/ in the given base directory. IDs take the form
// <prefix>-<zero-padded counter>, e.g. S-00001.
func NewSessionStoreManager(basePath, prefix string, padding int) SessionStoreManager {
	if prefix == "" {
		prefix = "S"
	}
	if padding <= 0 {
		padding = 5
	}
	return &fileSessionStore{
		basePath: basePath,
		prefix:   prefix,
		padding:  padding,
		index:    models.SessionIndex{Version: "1.0"},
		byID:     make(map[string]int),
	}
}

func (s *fileSessionStore) sessionsDir() string {
	return filepath.Join(s.basePath, "sessions")
}

func (s *fileSessionStore) indexPath() string {
	return filepath.Join(s.sessionsDir(), "sessions.yaml")
}

func (s *fileSessionStore) counterPath() string {
	return filepath.Join(s.sessionsDir(), ".session_counter")
}

// generateID reads and increments the session counter file under an
// exclusive flock, returning the next sequential ID.
func (s *fileSessionStore) generateID() (string, error) {
	if err := os.MkdirAll(s.sessionsDir(), 0o755); err != nil {
		return "", fmt.Errorf("generating session ID: creating directory: %w", err)
	}

	unlock, err := flockFile(s.counterPath())
	if err != nil {
		return "", fmt.Errorf("generating session ID: %w", err)
	}
	defer unlock()

	counter := 0
	data, err := os.ReadFile(s.counterPath())
	if err == nil {
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "" {
			counter, err = strconv.Atoi(trimmed)
			if err != nil {
				return "", fmt.Errorf("generating session ID: parsing counter: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("generating session ID: reading counter: %w", err)
	}

	counter++
	id := fmt.Sprintf("%s-%0*d", s.prefix, s.padding, counter)

	if err := os.WriteFile(s.counterPath(), []byte(strconv.Itoa(counter)), 0o600); err != nil {
		return "", fmt.Errorf("generating session ID: writing counter: %w", err)
	}
	return id, nil
}

// StartSession creates a new open session with a fresh sequential ID.
func (s *fileSessionStore) StartSession() (string, error) {
	id, err := s.generateID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registerLocked(id); err != nil {
		return "", err
	}
	return id, nil
}

// EnsureSession resolves the session a usage report belongs to. An empty ID
// starts a new session; a known ID is returned as-is; an unknown ID is
// registered so externally assigned session names keep working.
func (s *fileSessionStore) EnsureSession(id string) (string, error) {
	if id == "" {
		return s.StartSession()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; ok {
		return id, nil
	}
	if err := s.registerLocked(id); err != nil {
		return "", err
	}
	return id, nil
}

// registerLocked adds a new open session and persists the index. Caller
// holds s.mu.
func (s *fileSessionStore) registerLocked(id string) error {
	s.byID[id] = len(s.index.Sessions)
	s.index.Sessions = append(s.index.Sessions, models.Session{
		ID:        id,
		StartedAt: time.Now().UTC(),
	})
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("registering session %s: %w", id, err)
	}
	return nil
}

// RecordUsage advances the per-session counters for one usage report.
func (s *fileSessionStore) RecordUsage(sessionID string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}

	sess := &s.index.Sessions[i]
	sess.ToolCalls++
	if success {
		sess.Successes++
	} else {
		sess.Failures++
	}

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("recording usage for %s: %w", sessionID, err)
	}
	return nil
}

// CloseSession marks a session as ended. Closing an already closed session
// is a no-op.
func (s *fileSessionStore) CloseSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	if s.index.Sessions[i].EndedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	s.index.Sessions[i].EndedAt = &now

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("closing session %s: %w", id, err)
	}
	return nil
}

// GetSession returns a copy of the session with the given ID.
func (s *fileSessionStore) GetSession(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	cp := s.index.Sessions[i]
	return &cp, nil
}

// GetRecentSessions returns up to limit sessions, newest started first.
func (s *fileSessionStore) GetRecentSessions(limit int) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.index.Sessions) == 0 {
		return nil, nil
	}

	sorted := make([]models.Session, len(s.index.Sessions))
	copy(sorted, s.index.Sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Totals sums counters across all sessions.
func (s *fileSessionStore) Totals() (sessions, calls, successes, failures int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.index.Sessions {
		calls += sess.ToolCalls
		successes += sess.Successes
		failures += sess.Failures
	}
	return len(s.index.Sessions), calls, successes, failures, nil
}

// Load reads the session index from disk. Missing files start empty.
func (s *fileSessionStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = models.SessionIndex{}
	if err := loadYAML(s.indexPath(), &s.index); err != nil {
		return fmt.Errorf("loading session index: %w", err)
	}
	if s.index.Version == "" {
		s.index.Version = "1.0"
	}

	s.byID = make(map[string]int, len(s.index.Sessions))
	for i := range s.index.Sessions {
		s.byID[s.index.Sessions[i].ID] = i
	}
	return nil
}

// Save persists the session index to disk.
func (s *fileSessionStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *fileSessionStore) saveLocked() error {
	return saveYAMLAtomic(s.indexPath(), &s.index)
}
