package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader reads configuration from a JSON file with TOOLFLOW_* env overrides.
type Loader struct {
	configPath string
}

// NewLoader creates a loader for the given path. An empty path falls back
// to ~/.toolflow/toolflow.json.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads and validates the configuration. A missing file yields the
// validated defaults rather than an error.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("TOOLFLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".toolflow", "toolflow.json"), nil
}

// Load is a convenience wrapper over NewLoader(path).Load().
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
