package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/config"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	cfg         *config.Config
	lib         unpdf.Library
	registerer  prometheus.Registerer
	logger      *zap.Logger
	libraryPath string
}

// WithConfig applies cfg. Without it the runtime uses config.Default().
// Unless WithLogger is also given, the logging section replaces the
// package loggers.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLibrary uses an already opened library instead of resolving one.
// The runtime takes ownership and closes lib on Close.
func WithLibrary(lib unpdf.Library) Option {
	return func(o *options) {
		o.lib = lib
	}
}

// WithLibraryPath overrides library.path from the configuration.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.libraryPath = path
	}
}

// WithRegisterer registers the runtime's Prometheus collectors on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithLogger installs l through SetLogger, taking precedence over the
// configured logging section.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
