package storage

import (
	"errors"
	"testing"

	"github.com/valter-silva-au/toolbrain/internal/core"
)

func TestSessionStore_GeneratesSequentialIDs(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir(), "S", 5)

	first, err := store.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "S-00001" {
		t.Errorf("expected S-00001, got %s", first)
	}

	second, err := store.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != "S-00002" {
		t.Errorf("expected S-00002, got %s", second)
	}
}

func TestSessionStore_CounterSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store1 := NewSessionStoreManager(dir, "S", 5)
	if _, err := store1.StartSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store2 := NewSessionStoreManager(dir, "S", 5)
	if err := store2.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := store2.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "S-00002" {
		t.Errorf("expected counter to continue at S-00002, got %s", id)
	}
}

func TestSessionStore_EnsureSession(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir(), "S", 5)

	// Empty ID starts a fresh session.
	id, err := store.EnsureSession("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "S-00001" {
		t.Errorf("expected S-00001, got %s", id)
	}

	// Known ID passes through unchanged.
	same, err := store.EnsureSession(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same != id {
		t.Errorf("expected %s, got %s", id, same)
	}

	// Unknown external IDs get registered instead of rejected.
	ext, err := store.EnsureSession("ci-run-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext != "ci-run-42" {
		t.Errorf("expected ci-run-42, got %s", ext)
	}
	if _, err := store.GetSession("ci-run-42"); err != nil {
		t.Errorf("expected registered external session, got %v", err)
	}
}

func TestSessionStore_RecordUsageCounters(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir(), "S", 5)

	id, err := store.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, success := range []bool{true, true, false} {
		if err := store.RecordUsage(id, success); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	sess, err := store.GetSession(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ToolCalls != 3 || sess.Successes != 2 || sess.Failures != 1 {
		t.Errorf("unexpected counters: %+v", sess)
	}

	if err := store.RecordUsage("S-99999", true); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestSessionStore_CloseSessionIsIdempotent(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir(), "S", 5)

	id, err := store.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.CloseSession(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess, err := store.GetSession(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.EndedAt == nil {
		t.Fatal("expected EndedAt to be set")
	}
	ended := *sess.EndedAt

	if err := store.CloseSession(id); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	sess, _ = store.GetSession(id)
	if !sess.EndedAt.Equal(ended) {
		t.Error("expected EndedAt unchanged on second close")
	}
}

func TestSessionStore_Totals(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir(), "S", 5)

	a, _ := store.StartSession()
	b, _ := store.StartSession()
	if err := store.RecordUsage(a, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.RecordUsage(b, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sessions, calls, successes, failures, err := store.Totals()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessions != 2 || calls != 2 || successes != 1 || failures != 1 {
		t.Errorf("unexpected totals: %d/%d/%d/%d", sessions, calls, successes, failures)
	}
}

func TestSessionStore_RecentSessionsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStoreManager(dir, "S", 5)

	if _, err := store.StartSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.StartSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.StartSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recent, err := store.GetRecentSessions(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(recent))
	}
	if recent[0].StartedAt.Before(recent[1].StartedAt) {
		t.Error("expected newest session first")
	}

	// A fresh instance sees the same history after Load.
	reloaded := NewSessionStoreManager(dir, "S", 5)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sessions, _, _, _, err := reloaded.Totals()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessions != 3 {
		t.Errorf("expected 3 sessions after reload, got %d", sessions)
	}
}
