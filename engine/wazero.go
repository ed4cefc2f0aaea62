package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// Name identifies the image in errors and logs. Defaults to "unpdf".
	Name string

	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// Engine implements unpdf.Library over a WASM build of the engine that
// exports the same C ABI as the native library. All guest calls share one
// instance, one linear memory and one stack, so every call must happen
// inside Do.
type Engine struct {
	*WazeroMemory

	ctx      context.Context
	runtime  wazero.Runtime
	instance api.Module
	alloc    *wazeroAllocator
	fns      map[string]api.Function
	fault    error
	name     string
	stack    []uint64
	scratch  uint32
	mu       sync.Mutex
	closed   atomic.Bool
}

// Open compiles and instantiates wasm. The image must export linear memory,
// an allocator and every entry point in unpdf.Symbols with the expected
// signature.
func Open(ctx context.Context, wasm []byte, cfg *Config) (*Engine, error) {
	name := "unpdf"
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil {
		if cfg.Name != "" {
			name = cfg.Name
		}
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	e, err := instantiate(ctx, rt, wasm, name)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return e, nil
}

// OpenFile reads and opens the image at path with default configuration.
func OpenFile(path string) (unpdf.Library, error) {
	e, err := OpenFileWithConfig(context.Background(), path, nil)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OpenFileWithConfig reads and opens the image at path. An empty cfg.Name
// is replaced by path.
func OpenFileWithConfig(ctx context.Context, path string, cfg *Config) (*Engine, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("failed to read %s", path), err)
	}
	c := Config{Name: path}
	if cfg != nil {
		c.MemoryLimitPages = cfg.MemoryLimitPages
		if cfg.Name != "" {
			c.Name = cfg.Name
		}
	}
	return Open(ctx, wasm, &c)
}

func instantiate(ctx context.Context, rt wazero.Runtime, wasm []byte, name string) (*Engine, error) {
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("failed to compile %s", name), err)
	}

	if err := checkExports(name, compiled.ExportedFunctions(), compiled.ExportedMemories()); err != nil {
		return nil, err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Load("failed to instantiate WASI", err)
	}

	modConfig := wazero.NewModuleConfig().
		WithName("unpdf").
		WithStartFunctions("_initialize").
		WithFSConfig(wazero.NewFSConfig().WithDirMount("/", "/")).
		WithSysWalltime().
		WithSysNanotime()

	instance, err := rt.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("failed to instantiate %s", name), err)
	}

	e := &Engine{
		WazeroMemory: NewMemory(instance.Memory()),
		ctx:          ctx,
		runtime:      rt,
		instance:     instance,
		fns:          make(map[string]api.Function, len(unpdf.Symbols)),
		name:         name,
		stack:        make([]uint64, 4),
	}
	for _, sym := range unpdf.Symbols {
		e.fns[sym] = instance.ExportedFunction(sym)
	}

	// Cache allocator - try the engine's own export first, then fallbacks
	for _, allocName := range allocatorExports {
		def := instance.ExportedFunctionDefinitions()[allocName]
		if def == nil {
			continue
		}
		e.alloc = &wazeroAllocator{
			ctx:           ctx,
			allocFn:       instance.ExportedFunction(allocName),
			freeFn:        e.fns[unpdf.SymFreeBytes],
			stackBuf:      make([]uint64, 4),
			isSimpleAlloc: len(def.ParamTypes()) < 4,
		}
		break
	}

	scratch, err := e.alloc.Alloc(scratchSize, 4)
	if err != nil {
		_ = instance.Close(ctx)
		return nil, errors.AllocationFailed(errors.PhaseLoad, scratchSize, err)
	}
	e.scratch = scratch

	Logger().Debug("instantiated wasm engine",
		zap.String("name", name),
		zap.Uint32("memory_bytes", e.Size()))
	return e, nil
}

// checkExports collects every missing export before failing, and rejects
// entry points whose signature does not match the C ABI.
func checkExports(name string, fns map[string]api.FunctionDefinition, mems map[string]api.MemoryDefinition) error {
	var missing []string
	if _, ok := mems[memoryExport]; !ok {
		missing = append(missing, memoryExport)
	}

	hasAlloc := false
	for _, a := range allocatorExports {
		if _, ok := fns[a]; ok {
			hasAlloc = true
			break
		}
	}
	if !hasAlloc {
		missing = append(missing, UnpdfAlloc)
	}

	var mismatched []string
	for _, sym := range unpdf.Symbols {
		def, ok := fns[sym]
		if !ok {
			missing = append(missing, sym)
			continue
		}
		want := signatures[sym]
		if len(def.ParamTypes()) != want.params || len(def.ResultTypes()) != want.results {
			mismatched = append(mismatched, fmt.Sprintf("%s(%d params, %d results)", sym, len(def.ParamTypes()), len(def.ResultTypes())))
		}
	}

	if len(missing) > 0 {
		return errors.NewMissingSymbolsError(name, missing)
	}
	if len(mismatched) > 0 {
		return errors.New(errors.PhaseBind, errors.KindUnsupported).
			Value(name).
			Detail("entry points with unexpected signatures: %v", mismatched).
			Build()
	}
	return nil
}

// Do runs fn with exclusive use of the instance.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Fault returns and clears the trap raised by the last failed guest call.
func (e *Engine) Fault() error {
	err := e.fault
	e.fault = nil
	return err
}

// call invokes sym and returns its first result, or 0 after recording a
// fault.
func (e *Engine) call(sym string, params ...uint64) uint64 {
	fn := e.fns[sym]
	if e.closed.Load() || fn == nil {
		e.fault = errors.Closed(sym)
		return 0
	}

	stack := e.stack[:max(len(params), 1)]
	copy(stack, params)
	if err := fn.CallWithStack(e.ctx, stack); err != nil {
		Logger().Warn("wasm call trapped", zap.String("symbol", sym), zap.Error(err))
		e.fault = errors.Trap(sym, err)
		return 0
	}
	return stack[0]
}

// withCString copies s into guest memory as a NUL-terminated string for the
// duration of fn.
func (e *Engine) withCString(sym, s string, fn func(p uint64)) bool {
	size := len(s) + 1
	p, err := e.Alloc(size)
	if err != nil {
		e.fault = errors.New(errors.PhaseMemory, errors.KindAllocation).Op(sym).Cause(err).Build()
		return false
	}
	defer e.Free(p, size)

	buf := make([]byte, size)
	copy(buf, s)
	if err := e.Write(p, buf); err != nil {
		e.fault = err
		return false
	}

	fn(uint64(p))
	return true
}

func (e *Engine) envelopeCall(sym, path string, extra ...uint64) unpdf.Envelope {
	var env unpdf.Envelope
	retptr := unpdf.Ptr(e.scratch)
	e.withCString(sym, path, func(p uint64) {
		if err := e.WriteEnvelope(retptr, unpdf.Envelope{}); err != nil {
			e.fault = err
			return
		}
		e.call(sym, append([]uint64{uint64(retptr), p}, extra...)...)
		if e.fault != nil {
			return
		}
		var err error
		if env, err = e.ReadEnvelope(retptr); err != nil {
			e.fault = err
		}
	})
	return env
}

func (e *Engine) Version() unpdf.Ptr {
	return unpdf.Ptr(uint32(e.call(unpdf.SymVersion)))
}

func (e *Engine) LastError() unpdf.Ptr {
	return unpdf.Ptr(uint32(e.call(unpdf.SymLastError)))
}

func (e *Engine) ToMarkdown(path string) unpdf.Envelope {
	return e.envelopeCall(unpdf.SymToMarkdown, path)
}

func (e *Engine) ToText(path string) unpdf.Envelope {
	return e.envelopeCall(unpdf.SymToText, path)
}

func (e *Engine) ToJSON(path string, pretty bool) unpdf.Envelope {
	return e.envelopeCall(unpdf.SymToJSON, path, boolParam(pretty))
}

func (e *Engine) GetInfo(path string) unpdf.Envelope {
	return e.envelopeCall(unpdf.SymGetInfo, path)
}

func (e *Engine) GetPageCount(path string) int32 {
	n := int32(-1)
	e.withCString(unpdf.SymGetPageCount, path, func(p uint64) {
		r := e.call(unpdf.SymGetPageCount, p)
		if e.fault == nil {
			n = int32(uint32(r))
		}
	})
	return n
}

func (e *Engine) IsPDF(path string) bool {
	ok := false
	e.withCString(unpdf.SymIsPDF, path, func(p uint64) {
		ok = uint32(e.call(unpdf.SymIsPDF, p)) != 0
	})
	return ok
}

func (e *Engine) FreeResult(env unpdf.Envelope) {
	retptr := unpdf.Ptr(e.scratch)
	if err := e.WriteEnvelope(retptr, env); err != nil {
		e.fault = err
		return
	}
	e.call(unpdf.SymFreeResult, uint64(retptr))
}

func (e *Engine) ParseFile(path string) unpdf.Handle {
	var h unpdf.Handle
	e.withCString(unpdf.SymParseFile, path, func(p uint64) {
		h = unpdf.Handle(uint32(e.call(unpdf.SymParseFile, p)))
	})
	return h
}

func (e *Engine) ParseBytes(data unpdf.Ptr, length int) unpdf.Handle {
	return unpdf.Handle(uint32(e.call(unpdf.SymParseBytes, uint64(data), uint64(length))))
}

func (e *Engine) FreeDocument(h unpdf.Handle) {
	e.call(unpdf.SymFreeDocument, uint64(h))
}

func (e *Engine) DocumentToMarkdown(h unpdf.Handle, flags unpdf.Flags) unpdf.Ptr {
	return e.ptrCall(unpdf.SymDocumentToMarkdown, uint64(h), uint64(uint32(flags)))
}

func (e *Engine) DocumentToText(h unpdf.Handle) unpdf.Ptr {
	return e.ptrCall(unpdf.SymDocumentToText, uint64(h))
}

func (e *Engine) DocumentToJSON(h unpdf.Handle, format unpdf.JSONFormat) unpdf.Ptr {
	return e.ptrCall(unpdf.SymDocumentToJSON, uint64(h), uint64(uint32(format)))
}

func (e *Engine) PlainText(h unpdf.Handle) unpdf.Ptr {
	return e.ptrCall(unpdf.SymPlainText, uint64(h))
}

func (e *Engine) SectionCount(h unpdf.Handle) int32 {
	return e.countCall(unpdf.SymSectionCount, h)
}

func (e *Engine) ResourceCount(h unpdf.Handle) int32 {
	return e.countCall(unpdf.SymResourceCount, h)
}

func (e *Engine) Title(h unpdf.Handle) unpdf.Ptr {
	return e.ptrCall(unpdf.SymGetTitle, uint64(h))
}

func (e *Engine) Author(h unpdf.Handle) unpdf.Ptr {
	return e.ptrCall(unpdf.SymGetAuthor, uint64(h))
}

func (e *Engine) ResourceIDs(h unpdf.Handle) unpdf.Ptr {
	return e.ptrCall(unpdf.SymResourceIDs, uint64(h))
}

func (e *Engine) ResourceInfo(h unpdf.Handle, id string) unpdf.Ptr {
	var p unpdf.Ptr
	e.withCString(unpdf.SymResourceInfo, id, func(idp uint64) {
		p = e.ptrCall(unpdf.SymResourceInfo, uint64(h), idp)
	})
	return p
}

func (e *Engine) ResourceData(h unpdf.Handle, id string) (unpdf.Ptr, int) {
	var (
		p unpdf.Ptr
		n int
	)
	outLen := unpdf.Ptr(e.scratch + scratchOutLenOffset)
	e.withCString(unpdf.SymResourceData, id, func(idp uint64) {
		if err := e.WriteU32(outLen, 0); err != nil {
			e.fault = err
			return
		}
		p = e.ptrCall(unpdf.SymResourceData, uint64(h), idp, uint64(outLen))
		if p == 0 {
			return
		}
		size, err := e.ReadU32(outLen)
		if err != nil {
			e.fault = err
			p = 0
			return
		}
		n = int(size)
	})
	return p, n
}

func (e *Engine) FreeString(p unpdf.Ptr) {
	e.call(unpdf.SymFreeString, uint64(p))
}

func (e *Engine) FreeBytes(p unpdf.Ptr, length int) {
	e.call(unpdf.SymFreeBytes, uint64(p), uint64(length))
}

func (e *Engine) ptrCall(sym string, params ...uint64) unpdf.Ptr {
	return unpdf.Ptr(uint32(e.call(sym, params...)))
}

func (e *Engine) countCall(sym string, h unpdf.Handle) int32 {
	r := e.call(sym, uint64(h))
	if e.fault != nil {
		return -1
	}
	return int32(uint32(r))
}

// Alloc allocates size bytes of guest memory for a temporary input.
func (e *Engine) Alloc(size int) (unpdf.Ptr, error) {
	if size <= 0 {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, nil)
	}
	p, err := e.alloc.Alloc(uint32(size), 1)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, err)
	}
	if p == 0 {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, nil)
	}
	return unpdf.Ptr(p), nil
}

// Free releases memory returned by Alloc.
func (e *Engine) Free(p unpdf.Ptr, size int) {
	e.alloc.Free(uint32(p), uint32(size))
}

// Close releases the instance and its runtime. It is safe to call more than
// once.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.scratch != 0 {
		e.alloc.Free(e.scratch, scratchSize)
		e.scratch = 0
	}
	e.fns = nil
	if err := e.runtime.Close(e.ctx); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindLoad, err, "failed to close "+e.name)
	}
	Logger().Debug("closed wasm engine", zap.String("name", e.name))
	return nil
}

func boolParam(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

type wazeroAllocator struct {
	ctx           context.Context
	allocFn       api.Function
	freeFn        api.Function
	stackBuf      []uint64
	isSimpleAlloc bool
}

func (a *wazeroAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.allocFn == nil {
		return 0, fmt.Errorf("no allocator available")
	}

	if a.isSimpleAlloc {
		a.stackBuf[0] = uint64(size)
		err := a.allocFn.CallWithStack(a.ctx, a.stackBuf[:1])
		if err != nil {
			return 0, err
		}
		return uint32(a.stackBuf[0]), nil
	}
	a.stackBuf[0] = 0
	a.stackBuf[1] = 0
	a.stackBuf[2] = uint64(align)
	a.stackBuf[3] = uint64(size)
	err := a.allocFn.CallWithStack(a.ctx, a.stackBuf[:4])
	if err != nil {
		return 0, err
	}
	return uint32(a.stackBuf[0]), nil
}

func (a *wazeroAllocator) Free(ptr, size uint32) {
	if a.freeFn != nil && ptr != 0 {
		a.stackBuf[0] = uint64(ptr)
		a.stackBuf[1] = uint64(size)
		if err := a.freeFn.CallWithStack(a.ctx, a.stackBuf[:2]); err != nil {
			Logger().Warn("Free: failed to call unpdf_free_bytes for deallocation",
				zap.Uint32("ptr", ptr),
				zap.Uint32("size", size),
				zap.Error(err))
		}
	}
}

// Compile-time checks
var (
	_ unpdf.Library = (*Engine)(nil)
	_ unpdf.Faulter = (*Engine)(nil)
)
