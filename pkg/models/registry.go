package models

// ToolKind identifies how a tool is invoked.
type ToolKind string

const (
	// ToolKindNetworkService is a tool reachable over HTTP on a local port.
	ToolKindNetworkService ToolKind = "network-service"
	// ToolKindEmbeddedProcess is a tool exposed through a prefixed in-process
	// call surface (e.g. an MCP tool family).
	ToolKindEmbeddedProcess ToolKind = "embedded-process"
	// ToolKindScript is a tool invoked as a local executable.
	ToolKindScript ToolKind = "script"
)

// Tool describes an executable or addressable service that fulfils one or
// more capabilities. Only the fields meaningful to the tool's kind are set:
// Address/Port and Endpoints for network services, Prefix for embedded
// processes, Path for scripts.
type Tool struct {
	ID        string            `yaml:"id" json:"id" mapstructure:"id"`
	Name      string            `yaml:"name" json:"name,omitempty" mapstructure:"name"`
	Kind      ToolKind          `yaml:"kind" json:"kind" mapstructure:"kind"`
	Address   string            `yaml:"address,omitempty" json:"address,omitempty" mapstructure:"address"`
	Port      int               `yaml:"port,omitempty" json:"port,omitempty" mapstructure:"port"`
	Endpoints map[string]string `yaml:"endpoints,omitempty" json:"endpoints,omitempty" mapstructure:"endpoints"`
	Prefix    string            `yaml:"prefix,omitempty" json:"prefix,omitempty" mapstructure:"prefix"`
	Path      string            `yaml:"path,omitempty" json:"path,omitempty" mapstructure:"path"`
	DocRef    string            `yaml:"doc_ref,omitempty" json:"doc_ref,omitempty" mapstructure:"doc_ref"`
}

// Capability is a named user-facing need mapped to one tool, matched against
// free text via its keyword set. Capabilities are immutable after load.
type Capability struct {
	ID          string   `yaml:"id" json:"id" mapstructure:"id"`
	Description string   `yaml:"description" json:"description" mapstructure:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords" mapstructure:"keywords"`
	ToolID      string   `yaml:"tool_id" json:"tool_id" mapstructure:"tool_id"`
}

// RegistryDocument is the on-disk shape of the capability map. Tools and
// capabilities are lists, not maps, so that document order is preserved and
// tie-breaking during matching stays reproducible.
type RegistryDocument struct {
	Version      string       `yaml:"version" mapstructure:"version"`
	Tools        []Tool       `yaml:"tools" mapstructure:"tools"`
	Capabilities []Capability `yaml:"capabilities" mapstructure:"capabilities"`
}
