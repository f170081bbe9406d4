// Package config defines the runtime configuration surface and its loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"toolflow/pkg/approval"
)

// Config is the top-level runtime configuration.
type Config struct {
	// Workspace is the root directory tool targets are resolved against.
	Workspace string `json:"workspace" mapstructure:"workspace"`

	// DataDir holds files the tool runtime owns (fact store, logs).
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Approval  ApprovalConfig  `json:"approval" mapstructure:"approval"`
	Corrector CorrectorConfig `json:"corrector" mapstructure:"corrector"`
	Batch     BatchConfig     `json:"batch" mapstructure:"batch"`
	FactStore FactStoreConfig `json:"fact_store" mapstructure:"fact_store"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
}

// ApprovalConfig controls the confirmation gate.
type ApprovalConfig struct {
	// Mode is one of default, auto_edit, deny.
	Mode string `json:"mode" mapstructure:"mode"`
}

// CorrectorConfig selects the content corrector backing edit reconciliation.
type CorrectorConfig struct {
	// Provider is one of off, anthropic, openai.
	Provider string `json:"provider" mapstructure:"provider"`
	Model    string `json:"model" mapstructure:"model"`
	// APIKeyEnv names the environment variable holding the provider key.
	APIKeyEnv string `json:"api_key_env" mapstructure:"api_key_env"`
}

// BatchConfig bounds multi-file fan-out.
type BatchConfig struct {
	Width int `json:"width" mapstructure:"width"`
}

// FactStoreConfig locates the fact file.
type FactStoreConfig struct {
	Path  string `json:"path" mapstructure:"path"`
	Watch bool   `json:"watch" mapstructure:"watch"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Approval: ApprovalConfig{Mode: string(approval.ModeDefault)},
		Corrector: CorrectorConfig{
			Provider:  "off",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Batch:     BatchConfig{Width: 8},
		FactStore: FactStoreConfig{Watch: true},
		Logging:   LoggingConfig{Level: "info", Pretty: true},
		Metrics:   MetricsConfig{Addr: ":9090"},
	}
}

// Validate checks enum fields and fills derived paths.
func (c *Config) Validate() error {
	switch approval.Mode(c.Approval.Mode) {
	case approval.ModeDefault, approval.ModeAutoEdit, approval.ModeDeny:
	default:
		return fmt.Errorf("invalid approval mode %q (expected default, auto_edit, or deny)", c.Approval.Mode)
	}

	switch c.Corrector.Provider {
	case "off", "anthropic", "openai":
	default:
		return fmt.Errorf("invalid corrector provider %q (expected off, anthropic, or openai)", c.Corrector.Provider)
	}
	if c.Corrector.Provider != "off" && c.Corrector.Model == "" {
		return fmt.Errorf("corrector.model is required when provider is %q", c.Corrector.Provider)
	}

	if c.Batch.Width < 0 {
		return fmt.Errorf("batch.width must not be negative")
	}

	if c.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		c.Workspace = wd
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".toolflow")
	}
	if c.FactStore.Path == "" {
		c.FactStore.Path = filepath.Join(c.DataDir, "memories.md")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.DataDir, "toolflow.log")
	}

	return nil
}

// CorrectorAPIKey reads the provider key from the configured env var.
func (c *Config) CorrectorAPIKey() string {
	if c.Corrector.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Corrector.APIKeyEnv)
}
