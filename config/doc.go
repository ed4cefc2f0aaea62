// Package config loads configuration for the unpdf bindings.
//
// Configuration comes from a YAML file:
//
//	library:
//	  path: /opt/unpdf/lib/libunpdf.so
//	  search_paths: [/opt/unpdf/lib]
//	  allow_wasm: true
//	wasm:
//	  memory_limit_pages: 4096
//	logging:
//	  level: debug
//	  format: console
//	metrics:
//	  enabled: true
//
// LoadConfigWithEnvOverrides additionally applies UNPDF_SECTION_FIELD
// environment variables (UNPDF_LIBRARY_PATH, UNPDF_LOGGING_LEVEL, ...), which
// take precedence over the file. FromEnv uses defaults and the environment
// only. UNPDF_LIBRARY_SEARCH_PATHS is a list separated like PATH.
package config
