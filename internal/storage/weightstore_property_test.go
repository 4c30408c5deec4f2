package storage

import (
	"testing"

	"github.com/valter-silva-au/toolbrain/pkg/models"
	"pgregory.net/rapid"
)

// TestProperty_WeightAlwaysWithinBounds verifies that no sequence of
// outcomes can push a weight outside [MinToolWeight, MaxToolWeight].
func TestProperty_WeightAlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewLearningStoreManager(t.TempDir())

		outcomes := rapid.SliceOfN(rapid.Bool(), 1, 60).Draw(rt, "outcomes")
		for _, success := range outcomes {
			if err := store.RecordOutcome("tool", success); err != nil {
				rt.Fatalf("unexpected error: %v", err)
			}
			w := store.GetWeight("tool")
			if w < models.MinToolWeight || w > models.MaxToolWeight {
				rt.Fatalf("weight %.3f escaped bounds after %d outcomes", w, len(outcomes))
			}
		}
	})
}

// TestProperty_UseCountersMatchOutcomes verifies that total uses equals the
// number of reported outcomes and successes counts only the true ones.
func TestProperty_UseCountersMatchOutcomes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewLearningStoreManager(t.TempDir())

		outcomes := rapid.SliceOfN(rapid.Bool(), 1, 40).Draw(rt, "outcomes")
		wantSuccesses := 0
		for _, success := range outcomes {
			if success {
				wantSuccesses++
			}
			if err := store.RecordOutcome("tool", success); err != nil {
				rt.Fatalf("unexpected error: %v", err)
			}
		}

		weights := store.TopWeights(0)
		if len(weights) != 1 {
			rt.Fatalf("expected one weight record, got %d", len(weights))
		}
		if weights[0].TotalUses != len(outcomes) {
			rt.Fatalf("expected %d uses, got %d", len(outcomes), weights[0].TotalUses)
		}
		if weights[0].Successes != wantSuccesses {
			rt.Fatalf("expected %d successes, got %d", wantSuccesses, weights[0].Successes)
		}
	})
}
