package storage

import (
	"math"
	"testing"
	"time"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

func TestWeightStore_DefaultWeight(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	if w := store.GetWeight("never-seen"); w != models.DefaultToolWeight {
		t.Errorf("expected default weight %.1f, got %.2f", models.DefaultToolWeight, w)
	}
}

func TestWeightStore_SuccessAndFailureSteps(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	if err := store.RecordOutcome("exporter", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := store.GetWeight("exporter"); math.Abs(w-1.1) > 1e-9 {
		t.Errorf("expected 1.1 after success, got %.2f", w)
	}

	if err := store.RecordOutcome("exporter", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.RecordOutcome("exporter", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := store.GetWeight("exporter"); math.Abs(w-0.9) > 1e-9 {
		t.Errorf("expected 0.9 after two failures, got %.2f", w)
	}
}

func TestWeightStore_ClampsAtBounds(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	for i := 0; i < 20; i++ {
		if err := store.RecordOutcome("winner", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.RecordOutcome("loser", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if w := store.GetWeight("winner"); w != models.MaxToolWeight {
		t.Errorf("expected clamp at %.1f, got %.2f", models.MaxToolWeight, w)
	}
	if w := store.GetWeight("loser"); w != models.MinToolWeight {
		t.Errorf("expected clamp at %.1f, got %.2f", models.MinToolWeight, w)
	}

	// Uses still count at the bound.
	top := store.TopWeights(0)
	for _, w := range top {
		if w.TotalUses != 20 {
			t.Errorf("expected 20 uses for %s, got %d", w.ToolID, w.TotalUses)
		}
	}
}

func TestWeightStore_RankScoresAndOrder(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	// exporter: 3/4 successes, weight 1.0 + 0.3 - 0.1 = 1.2.
	for _, success := range []bool{true, true, true, false} {
		if err := store.RecordOutcome("exporter", success); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ranked := store.Rank([]string{"unseen", "exporter"})
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ranked))
	}
	if ranked[0].ToolID != "exporter" {
		t.Errorf("expected exporter first, got %s", ranked[0].ToolID)
	}
	if math.Abs(ranked[0].Score-1.2*0.75) > 1e-9 {
		t.Errorf("expected score %.3f, got %.3f", 1.2*0.75, ranked[0].Score)
	}
	// Unseen tools use the neutral prior.
	if math.Abs(ranked[1].Score-models.DefaultToolWeight*models.NeutralSuccessRate) > 1e-9 {
		t.Errorf("expected neutral prior score, got %.3f", ranked[1].Score)
	}
}

func TestWeightStore_RankTiesKeepInputOrder(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	ranked := store.Rank([]string{"b", "a", "c"})
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if ranked[i].ToolID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ranked[i].ToolID)
		}
	}
}

func TestWeightStore_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store1 := NewLearningStoreManager(dir)
	if err := store1.RecordOutcome("exporter", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store2 := NewLearningStoreManager(dir)
	if err := store2.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := store2.GetWeight("exporter"); math.Abs(w-1.1) > 1e-9 {
		t.Errorf("expected persisted weight 1.1, got %.2f", w)
	}
}

func TestWeightStore_RebuildFromRecords(t *testing.T) {
	store := NewLearningStoreManager(t.TempDir())

	// Seed state that the rebuild must discard.
	if err := store.RecordOutcome("stale", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now().UTC()
	records := []models.ToolUsageRecord{
		{ToolID: "exporter", Success: true, Timestamp: now},
		{ToolID: "exporter", Success: false, Timestamp: now},
		{ToolID: "renderer", Success: true, Timestamp: now},
	}
	if err := store.RebuildFromRecords(records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w := store.GetWeight("stale"); w != models.DefaultToolWeight {
		t.Errorf("expected stale entry discarded, got %.2f", w)
	}
	if w := store.GetWeight("exporter"); math.Abs(w-1.0) > 1e-9 {
		t.Errorf("expected exporter weight 1.0 after replay, got %.2f", w)
	}
	if w := store.GetWeight("renderer"); math.Abs(w-1.1) > 1e-9 {
		t.Errorf("expected renderer weight 1.1 after replay, got %.2f", w)
	}
}
