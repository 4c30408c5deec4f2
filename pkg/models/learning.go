package models

import "time"

// Weight bounds for the learning store. Every update is clamped into
// [MinToolWeight, MaxToolWeight] so a tool can neither run away nor starve.
const (
	MinToolWeight     = 0.1
	MaxToolWeight     = 2.0
	DefaultToolWeight = 1.0

	// WeightStep is the per-outcome adjustment applied on success (+) or
	// failure (-).
	WeightStep = 0.1

	// NeutralSuccessRate is the prior used for tools with no recorded uses.
	NeutralSuccessRate = 0.5
)

// ToolWeight is the learned per-tool record derived from usage outcomes.
// The append-only usage log is authoritative; this table can be rebuilt
// from it at any time.
type ToolWeight struct {
	ToolID    string    `yaml:"tool_id"`
	Weight    float64   `yaml:"weight"`
	TotalUses int       `yaml:"total_uses"`
	Successes int       `yaml:"successes"`
	LastUsed  time.Time `yaml:"last_used"`
}

// SuccessRate returns successes/total_uses, or the neutral prior when the
// tool has never been used.
func (w ToolWeight) SuccessRate() float64 {
	if w.TotalUses == 0 {
		return NeutralSuccessRate
	}
	return float64(w.Successes) / float64(w.TotalUses)
}

// WeightTable is the on-disk document holding all tool weights.
type WeightTable struct {
	Version string       `yaml:"version"`
	Weights []ToolWeight `yaml:"weights"`
}

// RankedTool is one entry in a weighted ranking: the compound score is
// weight multiplied by success rate.
type RankedTool struct {
	ToolID      string  `json:"tool_id" yaml:"tool_id"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Uses        int     `json:"uses" yaml:"uses"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
	Score       float64 `json:"score" yaml:"score"`
}
