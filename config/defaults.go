package config

// Default values for configuration fields.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// 4096 pages = 256MB
	DefaultWASMMemoryLimitPages = 4096
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.WASM.MemoryLimitPages == 0 {
		cfg.WASM.MemoryLimitPages = DefaultWASMMemoryLimitPages
	}
}
