// Package core contains the business logic for toolbrain: registry loading,
// need matching, learned routing, and session summaries.
package core

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// ConfigurationManager defines the interface for loading and validating the
// global configuration from the .brainconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .brainconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultOwner:   "local",
		ClosedPolicy:   models.ClosedPolicyReject,
		HTTPAddr:       "127.0.0.1:5161",
		KeepAliveSecs:  30,
		QueueSize:      64,
		SessionPrefix:  "S",
		SessionPadding: 5,
	}
}

// LoadGlobalConfig reads the .brainconfig file from the base path using
// Viper. If the file does not exist, sensible defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".brainconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("default_owner", cfg.DefaultOwner)
	v.SetDefault("closed_policy", string(cfg.ClosedPolicy))
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("keepalive_secs", cfg.KeepAliveSecs)
	v.SetDefault("queue_size", cfg.QueueSize)
	v.SetDefault("session_prefix", cfg.SessionPrefix)
	v.SetDefault("session_padding", cfg.SessionPadding)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg.DefaultOwner = resolveOwnerFromEnv()
			return cfg, nil
		}
		return nil, &ConfigError{Source: ".brainconfig", Reason: "reading file", Err: err}
	}

	if v.InConfig("default_owner") {
		cfg.DefaultOwner = v.GetString("default_owner")
	} else {
		cfg.DefaultOwner = resolveOwnerFromEnv()
	}
	cfg.ClosedPolicy = models.ClosedConversationPolicy(v.GetString("closed_policy"))
	cfg.HTTPAddr = v.GetString("http_addr")
	cfg.KeepAliveSecs = v.GetInt("keepalive_secs")
	cfg.QueueSize = v.GetInt("queue_size")
	cfg.SessionPrefix = v.GetString("session_prefix")
	if v.IsSet("session_padding") {
		cfg.SessionPadding = v.GetInt("session_padding")
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveOwnerFromEnv picks the default owner when the config file does not
// name one: TOOLBRAIN_USER, then USER, then "local".
func resolveOwnerFromEnv() string {
	if u := os.Getenv("TOOLBRAIN_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a ConfigError identifying the problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return &ConfigError{Source: ".brainconfig", Reason: "configuration is nil"}
	}

	switch cfg.ClosedPolicy {
	case models.ClosedPolicyReject, models.ClosedPolicyReopen:
	default:
		return &ConfigError{
			Source: ".brainconfig",
			Reason: fmt.Sprintf("closed_policy %q is invalid, must be reject or reopen", cfg.ClosedPolicy),
		}
	}

	if cfg.KeepAliveSecs <= 0 {
		return &ConfigError{
			Source: ".brainconfig",
			Reason: fmt.Sprintf("keepalive_secs must be positive, got %d", cfg.KeepAliveSecs),
		}
	}

	if cfg.QueueSize <= 0 {
		return &ConfigError{
			Source: ".brainconfig",
			Reason: fmt.Sprintf("queue_size must be positive, got %d", cfg.QueueSize),
		}
	}

	if cfg.SessionPadding < 0 || cfg.SessionPadding > 10 {
		return &ConfigError{
			Source: ".brainconfig",
			Reason: fmt.Sprintf("session_padding %d is invalid, must be between 0 and 10", cfg.SessionPadding),
		}
	}

	return nil
}
