package models

import "time"

// Session is a bounded sequence of tool-usage reports attributed to one
// logical work period. Sessions are never deleted, only closed.
type Session struct {
	ID        string     `yaml:"id" json:"id"`
	StartedAt time.Time  `yaml:"started_at" json:"started_at"`
	EndedAt   *time.Time `yaml:"ended_at,omitempty" json:"ended_at,omitempty"`
	ToolCalls int        `yaml:"tool_calls" json:"tool_calls"`
	Successes int        `yaml:"successes" json:"successes"`
	Failures  int        `yaml:"failures" json:"failures"`
}

// SessionIndex is the on-disk document holding all sessions.
type SessionIndex struct {
	Version  string    `yaml:"version"`
	Sessions []Session `yaml:"sessions"`
}

// ToolUsageRecord is one append-only usage fact. Records are immutable once
// written; session counters and tool weights are derived from them.
type ToolUsageRecord struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	ToolID    string    `json:"tool_id" yaml:"tool_id"`
	Need      string    `json:"need" yaml:"need"`
	Success   bool      `json:"success" yaml:"success"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ToolUsagePattern aggregates usage of one tool across all sessions.
type ToolUsagePattern struct {
	ToolID      string    `json:"tool_id"`
	Uses        int       `json:"uses"`
	Successes   int       `json:"successes"`
	SuccessRate float64   `json:"success_rate"`
	LastUsed    time.Time `json:"last_used"`
}

// SessionSummary is the aggregate view returned for session resume and
// stats: overall totals, the most-used tools, recent failures for
// awareness, and the most recent session.
type SessionSummary struct {
	TotalSessions  int                `json:"total_sessions"`
	TotalCalls     int                `json:"total_calls"`
	TotalSuccesses int                `json:"total_successes"`
	TotalFailures  int                `json:"total_failures"`
	MostUsedTools  []ToolUsagePattern `json:"most_used_tools"`
	RecentFailures []ToolUsageRecord  `json:"recent_failures"`
	LastSession    *Session           `json:"last_session,omitempty"`
}
