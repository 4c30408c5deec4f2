package models

// ClosedConversationPolicy decides what happens when a message is appended
// to a closed conversation.
type ClosedConversationPolicy string

const (
	// ClosedPolicyReject refuses appends to closed conversations.
	ClosedPolicyReject ClosedConversationPolicy = "reject"
	// ClosedPolicyReopen implicitly reopens the conversation on append.
	ClosedPolicyReopen ClosedConversationPolicy = "reopen"
)

// GlobalConfig holds system-wide settings read from .brainconfig via Viper.
type GlobalConfig struct {
	DefaultOwner   string                   `yaml:"default_owner" mapstructure:"default_owner"`
	ClosedPolicy   ClosedConversationPolicy `yaml:"closed_policy" mapstructure:"closed_policy"`
	HTTPAddr       string                   `yaml:"http_addr" mapstructure:"http_addr"`
	KeepAliveSecs  int                      `yaml:"keepalive_secs" mapstructure:"keepalive_secs"`
	QueueSize      int                      `yaml:"queue_size" mapstructure:"queue_size"`
	SessionPrefix  string                   `yaml:"session_prefix" mapstructure:"session_prefix"`
	SessionPadding int                      `yaml:"session_padding" mapstructure:"session_padding"`
}
