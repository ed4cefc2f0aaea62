package runtime

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/config"
	"github.com/iyulab/unpdf/engine"
	"github.com/iyulab/unpdf/errors"
	"github.com/iyulab/unpdf/handle"
	"github.com/iyulab/unpdf/loader"
	"github.com/iyulab/unpdf/metrics"
	"github.com/iyulab/unpdf/native"
)

// Runtime owns a loaded engine library and every document parsed through
// it. Stateless conversions and document parsing are safe for concurrent
// use; the backend serializes what it must.
type Runtime struct {
	lib     unpdf.Library
	metrics *metrics.Metrics
	docs    *handle.Table
	source  loader.Candidate
	closed  atomic.Bool
}

// New resolves and loads the engine library. Resolution failures are
// returned here, before any call is dispatched.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	switch {
	case o.logger != nil:
		SetLogger(o.logger)
	case o.cfg != nil:
		l, err := cfg.Logger()
		if err != nil {
			if o.lib != nil {
				_ = o.lib.Close()
			}
			return nil, err
		}
		SetLogger(l)
	}

	lib, source := o.lib, loader.Candidate{Path: "(provided)"}
	if lib == nil {
		lc := cfg.LoaderConfig()
		if o.libraryPath != "" {
			lc.LibraryPath = o.libraryPath
		}
		lc.OpenNative = native.OpenLibrary
		lc.OpenWASM = func(path string) (unpdf.Library, error) {
			e, err := engine.OpenFileWithConfig(ctx, path, &engine.Config{
				MemoryLimitPages: cfg.WASM.MemoryLimitPages,
			})
			if err != nil {
				return nil, err
			}
			return e, nil
		}

		var err error
		lib, source, err = loader.New(lc).Load()
		if err != nil {
			return nil, err
		}
	}

	reg := o.registerer
	if reg == nil && cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	var m *metrics.Metrics
	if reg != nil {
		var err error
		if m, err = metrics.New(reg); err != nil {
			_ = lib.Close()
			return nil, err
		}
	}

	r := &Runtime{
		lib:     lib,
		metrics: m,
		docs:    handle.NewTable(),
		source:  source,
	}
	if m != nil {
		r.docs.Subscribe(m)
	}
	r.docs.Subscribe(handle.ObserverFunc(logHandleEvent))

	Logger().Info("unpdf runtime ready",
		zap.String("library", source.Path),
		zap.Stringer("backend", source.Kind))
	return r, nil
}

var (
	defaultRuntime *Runtime
	defaultMu      sync.Mutex
	defaultReady   atomic.Bool
)

// Default returns a process-wide runtime configured from UNPDF_*
// environment variables. It is created on first use; a failed attempt is
// retried on the next call.
func Default(ctx context.Context) (*Runtime, error) {
	if defaultReady.Load() {
		return defaultRuntime, nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultReady.Load() {
		return defaultRuntime, nil
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	rt, err := New(ctx, WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	defaultRuntime = rt
	defaultReady.Store(true)
	return rt, nil
}

// Path returns the location the library was loaded from.
func (r *Runtime) Path() string {
	return r.source.Path
}

// Backend reports which backend serves the library.
func (r *Runtime) Backend() loader.Kind {
	return r.source.Kind
}

// LiveDocuments returns the number of parsed documents not yet released.
func (r *Runtime) LiveDocuments() int {
	return r.docs.Len()
}

// Version returns the engine's version string.
func (r *Runtime) Version() (string, error) {
	const op = unpdf.SymVersion

	var (
		v   string
		err error
	)
	if cerr := r.call(op, func() {
		p := r.lib.Version()
		if p == 0 {
			if err = r.absent(op); err == nil {
				err = errors.NilPointer(errors.PhaseRuntime, op)
			}
			return
		}
		// static string, never freed
		v, err = r.lib.ReadCString(p)
	}); cerr != nil {
		return "", cerr
	}
	return v, err
}

// Close releases every document still open and unloads the library.
// It is safe to call more than once.
func (r *Runtime) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	n, err := r.docs.Close()
	if n > 0 {
		Logger().Warn("released documents left open at close", zap.Int("count", n))
	}
	return stderrors.Join(err, r.lib.Close())
}

// call runs fn in the library's execution context and records its
// duration under op.
func (r *Runtime) call(op string, fn func()) error {
	if r.closed.Load() {
		return errors.Closed(op)
	}

	start := time.Now()
	r.lib.Do(func() {
		if err := r.takeFault(); err != nil {
			Logger().Warn("discarding stale engine fault", zap.Error(err))
		}
		fn()
	})
	r.metrics.ObserveCall(op, start)
	return nil
}

func logHandleEvent(e handle.Event) {
	s, ok := e.Value.(*docState)
	if !ok {
		return
	}
	Logger().Debug("document "+e.Type.String(),
		zap.Uint32("key", uint32(e.ID)),
		zap.Stringer("id", s.id))
}
