package config

// Config is the top-level configuration of the unpdf bindings.
type Config struct {
	// Library controls how the engine image is located.
	Library LibraryConfig `yaml:"library"`

	// WASM configures the portable engine backend.
	WASM WASMConfig `yaml:"wasm"`

	// Logging configures the zap logger shared by all packages.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus collectors.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LibraryConfig controls library resolution.
type LibraryConfig struct {
	// Path is an explicit library file or directory.
	Path string `yaml:"path"`

	// SearchPaths are directories searched before the executable's own.
	SearchPaths []string `yaml:"search_paths"`

	// AllowWASM falls back to unpdf.wasm when no native image loads.
	AllowWASM bool `yaml:"allow_wasm"`
}

// WASMConfig configures the wazero backend.
type WASMConfig struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 selects
	// DefaultWASMMemoryLimitPages.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}
