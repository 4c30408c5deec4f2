package storage

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// LearningStoreManager defines the interface for the learned per-tool
// weight table under learning/.
type LearningStoreManager interface {
	RecordOutcome(toolID string, success bool) error
	GetWeight(toolID string) float64
	Rank(toolIDs []string) []models.RankedTool
	TopWeights(limit int) []models.ToolWeight
	RebuildFromRecords(records []models.ToolUsageRecord) error
	Load() error
	Save() error
}

type fileWeightStore struct {
	basePath string

	mu    sync.Mutex
	table models.WeightTable
	byID  map[string]int
}

// NewLearningStoreManager creates a LearningStoreManager backed by
// learning/weights.yaml under the given base directory.
func NewLearningStoreManager(basePath string) LearningStoreManager {
	return &fileWeightStore{
		basePath: basePath,
		table:    models.WeightTable{Version: "1.0"},
		byID:     make(map[string]int),
	}
}

func (s *fileWeightStore) weightsPath() string {
	return filepath.Join(s.basePath, "learning", "weights.yaml")
}

// clampWeight bounds a weight into [MinToolWeight, MaxToolWeight].
func clampWeight(w float64) float64 {
	if w < models.MinToolWeight {
		return models.MinToolWeight
	}
	if w > models.MaxToolWeight {
		return models.MaxToolWeight
	}
	return w
}

// RecordOutcome applies one usage outcome: the weight moves one step up on
// success or down on failure, clamped into bounds, and the use counters
// advance. The table is persisted before returning; a tool at a bound still
// records the use.
func (s *fileWeightStore) RecordOutcome(toolID string, success bool) error {
	if toolID == "" {
		return fmt.Errorf("recording outcome: tool ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyOutcome(toolID, success, time.Now().UTC())

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("recording outcome for %s: %w", toolID, err)
	}
	return nil
}

// applyOutcome mutates the in-memory table. Caller holds s.mu.
func (s *fileWeightStore) applyOutcome(toolID string, success bool, at time.Time) {
	i, ok := s.byID[toolID]
	if !ok {
		s.byID[toolID] = len(s.table.Weights)
		s.table.Weights = append(s.table.Weights, models.ToolWeight{
			ToolID: toolID,
			Weight: models.DefaultToolWeight,
		})
		i = s.byID[toolID]
	}

	w := &s.table.Weights[i]
	if success {
		w.Weight = clampWeight(w.Weight + models.WeightStep)
		w.Successes++
	} else {
		w.Weight = clampWeight(w.Weight - models.WeightStep)
	}
	w.TotalUses++
	w.LastUsed = at
}

// GetWeight returns the learned weight for a tool, or the default for tools
// never reported on.
func (s *fileWeightStore) GetWeight(toolID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byID[toolID]; ok {
		return s.table.Weights[i].Weight
	}
	return models.DefaultToolWeight
}

// Rank scores the given tool IDs by weight multiplied by success rate and
// returns them highest first. Unknown tools score with the default weight
// and the neutral success-rate prior. The sort is stable, so input order
// decides ties.
func (s *fileWeightStore) Rank(toolIDs []string) []models.RankedTool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranked := make([]models.RankedTool, 0, len(toolIDs))
	for _, id := range toolIDs {
		w := models.ToolWeight{ToolID: id, Weight: models.DefaultToolWeight}
		if i, ok := s.byID[id]; ok {
			w = s.table.Weights[i]
		}
		rate := w.SuccessRate()
		ranked = append(ranked, models.RankedTool{
			ToolID:      id,
			Weight:      w.Weight,
			Uses:        w.TotalUses,
			SuccessRate: rate,
			Score:       w.Weight * rate,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// TopWeights returns up to limit weight records, highest weight first.
func (s *fileWeightStore) TopWeights(limit int) []models.ToolWeight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ToolWeight, len(s.table.Weights))
	copy(out, s.table.Weights)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// RebuildFromRecords discards the current table and replays the usage log
// in order. The log is authoritative; the rebuilt table replaces whatever
// was on disk.
func (s *fileWeightStore) RebuildFromRecords(records []models.ToolUsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = models.WeightTable{Version: "1.0"}
	s.byID = make(map[string]int)
	for _, rec := range records {
		if rec.ToolID == "" {
			continue
		}
		s.applyOutcome(rec.ToolID, rec.Success, rec.Timestamp)
	}

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("rebuilding weight table: %w", err)
	}
	return nil
}

// Load reads the weight table from disk. A missing file starts empty.
func (s *fileWeightStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = models.WeightTable{}
	if err := loadYAML(s.weightsPath(), &s.table); err != nil {
		return fmt.Errorf("loading weight table: %w", err)
	}
	if s.table.Version == "" {
		s.table.Version = "1.0"
	}

	s.byID = make(map[string]int, len(s.table.Weights))
	for i := range s.table.Weights {
		// Hand-edited files may carry out-of-bounds weights; clamp on load.
		s.table.Weights[i].Weight = clampWeight(s.table.Weights[i].Weight)
		s.byID[s.table.Weights[i].ToolID] = i
	}
	return nil
}

// Save persists the weight table to disk.
func (s *fileWeightStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *fileWeightStore) saveLocked() error {
	return saveYAMLAtomic(s.weightsPath(), &s.table)
}
