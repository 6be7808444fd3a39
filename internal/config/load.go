package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs error
	if c.Engine.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("engine.workers must be >= 0, got %d", c.Engine.Workers))
	}
	if c.Engine.MaxProgressive < 1 {
		errs = multierr.Append(errs, fmt.Errorf("engine.max_progressive must be >= 1, got %d", c.Engine.MaxProgressive))
	}
	if c.Engine.DefaultCurvature < 0 || c.Engine.DefaultCurvature > 1 {
		errs = multierr.Append(errs, fmt.Errorf("engine.default_curvature must be in [0, 1], got %g", c.Engine.DefaultCurvature))
	}
	if c.Limits.Min > c.Limits.Max {
		errs = multierr.Append(errs, fmt.Errorf("limits.min %g exceeds limits.max %g", c.Limits.Min, c.Limits.Max))
	}
	switch c.Output.Format {
	case "text", "yaml":
	default:
		errs = multierr.Append(errs, fmt.Errorf("output.format must be text or yaml, got %q", c.Output.Format))
	}
	if c.Output.Precision < 0 || c.Output.Precision > 9 {
		errs = multierr.Append(errs, fmt.Errorf("output.precision must be in [0, 9], got %d", c.Output.Precision))
	}
	return errs
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Morpher")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Morpher")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "morpher")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "morpher")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
