package core

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// Registry is an immutable, validated view of the capability map. Replacing
// the registry swaps the whole value; readers never observe a partial load.
type Registry struct {
	version      string
	capabilities []models.Capability
	capsByID     map[string]int
	toolsByID    map[string]models.Tool
	toolOrder    []string
}

// Version returns the registry document version.
func (r *Registry) Version() string { return r.version }

// Capabilities returns all capabilities in document order. The returned
// slice must not be modified.
func (r *Registry) Capabilities() []models.Capability { return r.capabilities }

// Lookup returns the capability with the given ID, or ErrNotFound.
func (r *Registry) Lookup(capabilityID string) (models.Capability, error) {
	i, ok := r.capsByID[capabilityID]
	if !ok {
		return models.Capability{}, fmt.Errorf("capability %q: %w", capabilityID, ErrNotFound)
	}
	return r.capabilities[i], nil
}

// LookupTool returns the tool with the given ID, or ErrNotFound.
func (r *Registry) LookupTool(toolID string) (models.Tool, error) {
	t, ok := r.toolsByID[toolID]
	if !ok {
		return models.Tool{}, fmt.Errorf("tool %q: %w", toolID, ErrNotFound)
	}
	return t, nil
}

// ToolIDs returns all tool IDs in document order.
func (r *Registry) ToolIDs() []string { return r.toolOrder }

// RegistryManager loads the capability map document and holds the current
// registry. Load validates and swaps atomically; Current never blocks.
type RegistryManager interface {
	Load() error
	Current() *Registry
}

// fileRegistryManager reads capability_map.yaml from the base path using
// Viper and keeps the active registry behind an atomic pointer.
type fileRegistryManager struct {
	basePath string
	current  atomic.Pointer[Registry]
}

// NewRegistryManager creates a RegistryManager reading capability_map.yaml
// from the given base directory. Call Load before Current.
func NewRegistryManager(basePath string) RegistryManager {
	return &fileRegistryManager{basePath: basePath}
}

// Load reads, validates, and compiles the capability map, then swaps it in
// as the current registry. On any error the previous registry stays active.
func (m *fileRegistryManager) Load() error {
	v := viper.New()
	v.SetConfigName("capability_map")
	v.SetConfigType("yaml")
	v.AddConfigPath(m.basePath)

	if err := v.ReadInConfig(); err != nil {
		return &ConfigError{Source: "capability_map.yaml", Reason: "reading file", Err: err}
	}

	var doc models.RegistryDocument
	if err := v.Unmarshal(&doc); err != nil {
		return &ConfigError{Source: "capability_map.yaml", Reason: "decoding document", Err: err}
	}

	reg, err := compileRegistry(doc)
	if err != nil {
		return err
	}

	m.current.Store(reg)
	return nil
}

// Current returns the active registry, or nil if Load has never succeeded.
func (m *fileRegistryManager) Current() *Registry {
	return m.current.Load()
}

// compileRegistry validates a registry document and builds the immutable
// lookup structures. Document order is preserved for both tools and
// capabilities so matching stays reproducible.
func compileRegistry(doc models.RegistryDocument) (*Registry, error) {
	reg := &Registry{
		version:   doc.Version,
		capsByID:  make(map[string]int, len(doc.Capabilities)),
		toolsByID: make(map[string]models.Tool, len(doc.Tools)),
	}

	for _, t := range doc.Tools {
		if t.ID == "" {
			return nil, &ConfigError{Source: "capability_map.yaml", Reason: "tool with empty id"}
		}
		if _, dup := reg.toolsByID[t.ID]; dup {
			return nil, &ConfigError{Source: "capability_map.yaml", Reason: fmt.Sprintf("duplicate tool id %q", t.ID)}
		}
		switch t.Kind {
		case models.ToolKindNetworkService, models.ToolKindEmbeddedProcess, models.ToolKindScript:
		default:
			return nil, &ConfigError{
				Source: "capability_map.yaml",
				Reason: fmt.Sprintf("tool %q has unknown kind %q", t.ID, t.Kind),
			}
		}
		reg.toolsByID[t.ID] = t
		reg.toolOrder = append(reg.toolOrder, t.ID)
	}

	for _, c := range doc.Capabilities {
		if c.ID == "" {
			return nil, &ConfigError{Source: "capability_map.yaml", Reason: "capability with empty id"}
		}
		if _, dup := reg.capsByID[c.ID]; dup {
			return nil, &ConfigError{Source: "capability_map.yaml", Reason: fmt.Sprintf("duplicate capability id %q", c.ID)}
		}
		if _, ok := reg.toolsByID[c.ToolID]; !ok {
			return nil, &ConfigError{
				Source: "capability_map.yaml",
				Reason: fmt.Sprintf("capability %q references unknown tool %q", c.ID, c.ToolID),
			}
		}
		if len(c.Keywords) == 0 {
			return nil, &ConfigError{
				Source: "capability_map.yaml",
				Reason: fmt.Sprintf("capability %q has no keywords", c.ID),
			}
		}
		// Keywords are matched case-insensitively; normalize once at load.
		normalized := make([]string, len(c.Keywords))
		for i, kw := range c.Keywords {
			normalized[i] = strings.ToLower(kw)
		}
		c.Keywords = normalized

		reg.capsByID[c.ID] = len(reg.capabilities)
		reg.capabilities = append(reg.capabilities, c)
	}

	return reg, nil
}
