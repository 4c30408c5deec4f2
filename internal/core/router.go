package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// WeightStore is the view of the learning weight store the router needs.
type WeightStore interface {
	RecordOutcome(toolID string, success bool) error
	GetWeight(toolID string) float64
	Rank(toolIDs []string) []models.RankedTool
}

// SessionRecorder is the view of the session store the router needs.
type SessionRecorder interface {
	EnsureSession(id string) (string, error)
	RecordUsage(sessionID string, success bool) error
}

// UsageAppender appends immutable usage records to the durable log.
type UsageAppender interface {
	AppendUsage(rec models.ToolUsageRecord) error
}

// RouteResult is the answer to "what tool should I use for this need".
type RouteResult struct {
	CapabilityID string        `json:"capability_id"`
	ToolID       string        `json:"tool_id"`
	Description  string        `json:"description"`
	Confidence   string        `json:"confidence"`
	Tool         models.Tool   `json:"tool"`
	Profile      string        `json:"profile,omitempty"`
	AlsoRelevant []string      `json:"also_relevant,omitempty"`
	Score        int           `json:"score"`
	LearnedScore float64       `json:"learned_score"`
}

// UsageReport is one inbound tool-usage report.
type UsageReport struct {
	ToolID    string
	Need      string
	Success   bool
	Notes     string
	SessionID string
}

// UsageAck confirms a logged usage report and carries the session the
// report was attributed to.
type UsageAck struct {
	Logged    bool   `json:"logged"`
	SessionID string `json:"session_id"`
}

// CapabilityInventory lists everything the registry knows about.
type CapabilityInventory struct {
	Capabilities      []models.Capability `json:"capabilities"`
	Tools             []models.Tool       `json:"tools"`
	TotalCapabilities int                 `json:"total_capabilities"`
	TotalTools        int                 `json:"total_tools"`
}

// NeedRouter routes free-text needs to capabilities, folds learned weights
// into the ranking, and records usage outcomes.
type NeedRouter interface {
	RouteNeed(text string) (*RouteResult, error)
	ReportUsage(report UsageReport) (*UsageAck, error)
	RankTools(toolIDs []string) ([]models.RankedTool, error)
	ListCapabilities() (*CapabilityInventory, error)
}

type needRouter struct {
	registry RegistryManager
	weights  WeightStore
	sessions SessionRecorder
	usageLog UsageAppender
}

// NewNeedRouter wires a NeedRouter from its collaborators. usageLog may be
// nil, in which case usage records are not journalled.
func NewNeedRouter(registry RegistryManager, weights WeightStore, sessions SessionRecorder, usageLog UsageAppender) NeedRouter {
	return &needRouter{
		registry: registry,
		weights:  weights,
		sessions: sessions,
		usageLog: usageLog,
	}
}

// RouteNeed matches the need text against the registry and returns the best
// capability. Keyword score dominates; among keyword-equal candidates the
// learned weight*success_rate breaks the tie. Confidence is "high" with two
// or more keyword hits, "medium" otherwise.
func (r *needRouter) RouteNeed(text string) (*RouteResult, error) {
	if len(text) == 0 {
		return nil, &ValidationError{Field: "need", Reason: "must not be empty"}
	}

	reg := r.registry.Current()
	if reg == nil {
		return nil, &ConfigError{Source: "capability_map.yaml", Reason: "registry not loaded"}
	}

	matches := MatchNeed(text, reg)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no capability matches need: %w", ErrNotFound)
	}

	best := r.breakTies(matches)

	tool, err := reg.LookupTool(best.Capability.ToolID)
	if err != nil {
		// Load-time validation guarantees the tool exists; a miss here means
		// the registry was swapped between match and lookup.
		return nil, err
	}

	result := &RouteResult{
		CapabilityID: best.Capability.ID,
		ToolID:       best.Capability.ToolID,
		Description:  best.Capability.Description,
		Tool:         tool,
		Score:        best.Score,
		Profile:      ClassifyProfile(text),
	}

	if best.Score >= 2 {
		result.Confidence = "high"
	} else {
		result.Confidence = "medium"
	}

	ranked := r.weights.Rank([]string{best.Capability.ToolID})
	if len(ranked) > 0 {
		result.LearnedScore = ranked[0].Score
	}

	for _, m := range matches {
		if m.Capability.ID != best.Capability.ID {
			result.AlsoRelevant = append(result.AlsoRelevant, m.Capability.ID)
		}
	}

	return result, nil
}

// breakTies picks the winning match. Candidates sharing the top keyword
// score are re-ranked by learned score; the ranking is stable, so with no
// learning history the registry order still decides.
func (r *needRouter) breakTies(matches []CapabilityMatch) CapabilityMatch {
	topScore := matches[0].Score
	var contenders []CapabilityMatch
	for _, m := range matches {
		if m.Score == topScore {
			contenders = append(contenders, m)
		}
	}
	if len(contenders) == 1 {
		return contenders[0]
	}

	ids := make([]string, len(contenders))
	for i, m := range contenders {
		ids[i] = m.Capability.ToolID
	}
	ranked := r.weights.Rank(ids)
	if len(ranked) == 0 {
		return contenders[0]
	}

	for _, m := range contenders {
		if m.Capability.ToolID == ranked[0].ToolID {
			return m
		}
	}
	return contenders[0]
}

// ReportUsage records a usage outcome: the weight update first, then the
// session/usage append. The two writes are independently durable; a failure
// in one does not suppress the other, and any failure is reported rather
// than swallowed.
func (r *needRouter) ReportUsage(report UsageReport) (*UsageAck, error) {
	if report.ToolID == "" {
		return nil, &ValidationError{Field: "tool_id", Reason: "must not be empty"}
	}
	if report.Need == "" {
		return nil, &ValidationError{Field: "need", Reason: "must not be empty"}
	}

	sessionID, err := r.sessions.EnsureSession(report.SessionID)
	if err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}

	var errs []error

	if err := r.weights.RecordOutcome(report.ToolID, report.Success); err != nil {
		errs = append(errs, fmt.Errorf("recording outcome: %w", err))
	}

	if err := r.sessions.RecordUsage(sessionID, report.Success); err != nil {
		errs = append(errs, fmt.Errorf("updating session counters: %w", err))
	}

	if r.usageLog != nil {
		rec := models.ToolUsageRecord{
			SessionID: sessionID,
			ToolID:    report.ToolID,
			Need:      report.Need,
			Success:   report.Success,
			Notes:     report.Notes,
			Timestamp: time.Now().UTC(),
		}
		if err := r.usageLog.AppendUsage(rec); err != nil {
			errs = append(errs, fmt.Errorf("appending usage record: %w", err))
		}
	}

	if len(errs) > 0 {
		return &UsageAck{Logged: false, SessionID: sessionID}, errors.Join(errs...)
	}
	return &UsageAck{Logged: true, SessionID: sessionID}, nil
}

// RankTools ranks the given tool IDs by weight multiplied by success rate,
// highest first. Unseen tools get the neutral prior. Input order is
// preserved for equal scores.
func (r *needRouter) RankTools(toolIDs []string) ([]models.RankedTool, error) {
	if len(toolIDs) == 0 {
		return nil, &ValidationError{Field: "tool_ids", Reason: "must not be empty"}
	}
	return r.weights.Rank(toolIDs), nil
}

// ListCapabilities returns the registry inventory.
func (r *needRouter) ListCapabilities() (*CapabilityInventory, error) {
	reg := r.registry.Current()
	if reg == nil {
		return nil, &ConfigError{Source: "capability_map.yaml", Reason: "registry not loaded"}
	}

	caps := reg.Capabilities()
	inv := &CapabilityInventory{
		Capabilities:      caps,
		TotalCapabilities: len(caps),
	}
	for _, id := range reg.ToolIDs() {
		tool, err := reg.LookupTool(id)
		if err != nil {
			continue
		}
		inv.Tools = append(inv.Tools, tool)
	}
	inv.TotalTools = len(inv.Tools)
	return inv, nil
}
