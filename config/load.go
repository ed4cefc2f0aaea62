package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file-based configuration.
const (
	EnvLibraryPath          = "UNPDF_LIBRARY_PATH"
	EnvLibrarySearchPaths   = "UNPDF_LIBRARY_SEARCH_PATHS"
	EnvLibraryAllowWASM     = "UNPDF_LIBRARY_ALLOW_WASM"
	EnvWASMMemoryLimitPages = "UNPDF_WASM_MEMORY_LIMIT_PAGES"
	EnvLoggingLevel         = "UNPDF_LOGGING_LEVEL"
	EnvLoggingFormat        = "UNPDF_LOGGING_FORMAT"
	EnvMetricsEnabled       = "UNPDF_METRICS_ENABLED"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention UNPDF_SECTION_FIELD and always take precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a configuration from defaults and environment variables
// only.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies UNPDF_* environment variables to cfg.
// Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(EnvLibraryPath); val != "" {
		cfg.Library.Path = val
	}
	if val := os.Getenv(EnvLibrarySearchPaths); val != "" {
		cfg.Library.SearchPaths = filepath.SplitList(val)
	}
	if val := os.Getenv(EnvLibraryAllowWASM); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Library.AllowWASM = b
		}
	}

	if val := os.Getenv(EnvWASMMemoryLimitPages); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.WASM.MemoryLimitPages = uint32(n)
		}
	}

	if val := os.Getenv(EnvLoggingLevel); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(EnvLoggingFormat); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
