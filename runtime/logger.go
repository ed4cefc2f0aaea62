package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/iyulab/unpdf/engine"
	"github.com/iyulab/unpdf/loader"
	"github.com/iyulab/unpdf/native"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the runtime package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the runtime package's logger along with the loader
// and both backends. This must be called before creating a Runtime.
func SetLogger(l *zap.Logger) {
	logger = l
	loader.SetLogger(l.Named("loader"))
	native.SetLogger(l.Named("native"))
	engine.SetLogger(l.Named("engine"))
}
