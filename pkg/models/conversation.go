package models

import "time"

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single exchanged message within a conversation. Messages are
// append-only: never mutated or reordered after append.
type Message struct {
	ID        string         `yaml:"id" json:"id"`
	Role      string         `yaml:"role" json:"role"`
	Content   string         `yaml:"content" json:"content"`
	Surface   string         `yaml:"surface" json:"surface"`
	Mode      string         `yaml:"mode,omitempty" json:"mode,omitempty"`
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`
	Meta      map[string]any `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// ArtifactLink connects a conversation to an external artifact. Links are
// deduplicated by artifact ID within a conversation.
type ArtifactLink struct {
	Type       string    `yaml:"type" json:"type"`
	ID         string    `yaml:"id" json:"id"`
	Title      string    `yaml:"title,omitempty" json:"title,omitempty"`
	Confidence float64   `yaml:"confidence" json:"confidence"`
	LinkedAt   time.Time `yaml:"linked_at" json:"linked_at"`
}

// Conversation is a durable, ordered record of exchanged messages and
// linked artifacts across one or more surfaces. One conversation belongs to
// exactly one owner.
type Conversation struct {
	ID           string             `yaml:"id" json:"id"`
	Topic        string             `yaml:"topic" json:"topic"`
	Owner        string             `yaml:"owner" json:"owner"`
	Surfaces     []string           `yaml:"surfaces" json:"surfaces"`
	Tags         []string           `yaml:"tags,omitempty" json:"tags,omitempty"`
	Messages     []Message          `yaml:"messages" json:"messages"`
	Artifacts    []ArtifactLink     `yaml:"artifacts" json:"artifacts"`
	Status       ConversationStatus `yaml:"status" json:"status"`
	MessageCount int                `yaml:"message_count" json:"message_count"`
	CreatedAt    time.Time          `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `yaml:"updated_at" json:"updated_at"`
}

// HasSurface reports whether the given surface already participates in the
// conversation.
func (c *Conversation) HasSurface(surface string) bool {
	for _, s := range c.Surfaces {
		if s == surface {
			return true
		}
	}
	return false
}

// ConversationIndexEntry is the denormalized summary kept in the index
// document so listing never loads full conversation bodies. It must be
// re-derived on every mutation of the owning conversation.
type ConversationIndexEntry struct {
	ID           string             `yaml:"id" json:"id"`
	Topic        string             `yaml:"topic" json:"topic"`
	Owner        string             `yaml:"owner" json:"owner"`
	Surfaces     []string           `yaml:"surfaces" json:"surfaces"`
	Status       ConversationStatus `yaml:"status" json:"status"`
	MessageCount int                `yaml:"message_count" json:"message_count"`
	CreatedAt    time.Time          `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `yaml:"updated_at" json:"updated_at"`
}

// ConversationIndex is the on-disk index document.
type ConversationIndex struct {
	Version       string                   `yaml:"version"`
	LastUpdated   time.Time                `yaml:"last_updated"`
	Conversations []ConversationIndexEntry `yaml:"conversations"`
}

// ConversationFilter selects conversations when listing. All provided
// criteria are ANDed; empty fields match everything.
type ConversationFilter struct {
	Owner   string
	Surface string
	Status  ConversationStatus
}

// ParseStatusFilter maps a caller-supplied status value to a filter value.
// Listing defaults to active conversations; "all" matches every status.
func ParseStatusFilter(s string) ConversationStatus {
	switch s {
	case "":
		return ConversationActive
	case "all":
		return ""
	default:
		return ConversationStatus(s)
	}
}
