package loader

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// EnvLibraryPath names an explicit library file (or directory to search)
// that takes precedence over every other candidate.
const EnvLibraryPath = "UNPDF_LIBRARY_PATH"

// Kind is the backend a candidate image is loaded with.
type Kind int

const (
	KindNative Kind = iota
	KindWASM
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindWASM:
		return "wasm"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Candidate is one location a library image may be loaded from.
type Candidate struct {
	Path string
	Kind Kind
	// System is set for bare file names resolved by the platform loader's
	// own search path. Such candidates are not checked for existence first.
	System bool
}

// OpenFunc loads the library image at path.
type OpenFunc func(path string) (unpdf.Library, error)

// Config controls library resolution.
type Config struct {
	OpenNative OpenFunc
	OpenWASM   OpenFunc

	// LibraryPath is an explicit image file or directory. When empty the
	// UNPDF_LIBRARY_PATH environment variable is consulted.
	LibraryPath string
	SearchPaths []string

	// GOOS and GOARCH default to the running platform.
	GOOS   string
	GOARCH string
	// ExeDir defaults to the directory of the running executable.
	ExeDir string

	// AllowWASM adds unpdf.wasm candidates after every native one.
	AllowWASM bool
}

// Resolver finds and loads the engine library once.
type Resolver struct {
	lib    unpdf.Library
	cfg    Config
	cand   Candidate
	mu     sync.Mutex
	loaded atomic.Bool
}

// New creates a resolver for cfg.
func New(cfg Config) *Resolver {
	if cfg.GOOS == "" {
		cfg.GOOS = goruntime.GOOS
	}
	if cfg.GOARCH == "" {
		cfg.GOARCH = goruntime.GOARCH
	}
	if cfg.LibraryPath == "" {
		cfg.LibraryPath = os.Getenv(EnvLibraryPath)
	}
	if cfg.ExeDir == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.ExeDir = filepath.Dir(exe)
		}
	}
	return &Resolver{cfg: cfg}
}

// Candidates returns every location Load tries, in order.
func (r *Resolver) Candidates() []Candidate {
	names := Names(r.cfg.GOOS)
	dirs := r.searchDirs()

	var out []Candidate
	if p := r.cfg.LibraryPath; p != "" {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append([]string{p}, dirs...)
		} else {
			out = append(out, Candidate{Path: p, Kind: kindForPath(p)})
		}
	}

	for _, name := range names {
		for _, dir := range dirs {
			out = append(out, Candidate{Path: filepath.Join(dir, name), Kind: KindNative})
		}
		out = append(out, Candidate{Path: name, Kind: KindNative, System: true})
	}

	if r.cfg.AllowWASM {
		for _, dir := range dirs {
			out = append(out, Candidate{Path: filepath.Join(dir, NameWASM), Kind: KindWASM})
		}
	}
	return out
}

func (r *Resolver) searchDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(d string) {
		if d == "" {
			return
		}
		d = filepath.Clean(d)
		if seen[d] {
			return
		}
		seen[d] = true
		dirs = append(dirs, d)
	}

	for _, d := range r.cfg.SearchPaths {
		add(d)
	}
	if exe := r.cfg.ExeDir; exe != "" {
		musl := r.cfg.GOOS == "linux" && detectMusl()
		add(filepath.Join(exe, "lib", RuntimeID(r.cfg.GOOS, r.cfg.GOARCH, musl)))
		add(filepath.Join(exe, "lib"))
		add(exe)
	}
	return dirs
}

func kindForPath(p string) Kind {
	if strings.EqualFold(filepath.Ext(p), ".wasm") {
		return KindWASM
	}
	return KindNative
}

func (r *Resolver) opener(k Kind) OpenFunc {
	if k == KindWASM {
		return r.cfg.OpenWASM
	}
	return r.cfg.OpenNative
}

// Load returns the first candidate that opens successfully. The result is
// cached; later calls return the same library without touching the
// filesystem. On failure the error lists every attempted candidate.
func (r *Resolver) Load() (unpdf.Library, Candidate, error) {
	if r.loaded.Load() {
		return r.lib, r.cand, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded.Load() {
		return r.lib, r.cand, nil
	}

	var (
		tried []string
		errs  []error
	)
	for _, c := range r.Candidates() {
		if !c.System {
			if _, err := os.Stat(c.Path); err != nil {
				tried = append(tried, c.Path+" (not found)")
				continue
			}
		}

		open := r.opener(c.Kind)
		if open == nil {
			tried = append(tried, c.Path+" (no "+c.Kind.String()+" backend)")
			continue
		}

		lib, err := open(c.Path)
		if err != nil {
			Logger().Debug("library candidate failed",
				zap.String("path", c.Path),
				zap.Stringer("kind", c.Kind),
				zap.Error(err))
			tried = append(tried, c.Path+" ("+err.Error()+")")
			errs = append(errs, fmt.Errorf("%s: %w", c.Path, err))
			continue
		}

		r.lib, r.cand = lib, c
		r.loaded.Store(true)
		Logger().Debug("loaded unpdf library",
			zap.String("path", c.Path),
			zap.Stringer("kind", c.Kind))
		return lib, c, nil
	}

	detail := fmt.Sprintf("no unpdf library could be loaded for %s/%s; tried:\n  %s",
		r.cfg.GOOS, r.cfg.GOARCH, strings.Join(tried, "\n  "))
	return nil, Candidate{}, errors.Load(detail, stderrors.Join(errs...))
}
