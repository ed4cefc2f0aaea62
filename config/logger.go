package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iyulab/unpdf/loader"
)

// Logger builds the zap logger described by the logging section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}

	var zc zap.Config
	if strings.EqualFold(c.Logging.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// LoaderConfig returns the library resolution settings. The caller supplies
// the backend open functions.
func (c *Config) LoaderConfig() loader.Config {
	return loader.Config{
		LibraryPath: c.Library.Path,
		SearchPaths: append([]string(nil), c.Library.SearchPaths...),
		AllowWASM:   c.Library.AllowWASM,
	}
}
