//go:build darwin || freebsd || linux || netbsd || windows

package native

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// cResult matches the engine's result struct: a C bool followed by two
// pointers.
type cResult struct {
	Success bool
	Data    uintptr
	Error   uintptr
}

func (r cResult) envelope() unpdf.Envelope {
	return unpdf.Envelope{Success: r.Success, Data: unpdf.Ptr(r.Data), Error: unpdf.Ptr(r.Error)}
}

func fromEnvelope(env unpdf.Envelope) cResult {
	return cResult{Success: env.Success, Data: uintptr(env.Data), Error: uintptr(env.Error)}
}

// Library is an unpdf.Library backed by a dynamically loaded native image.
// Strings passed to the engine are converted to NUL-terminated copies that
// live for the duration of the call.
type Library struct {
	Memory
	*arena

	version   func() uintptr
	lastError func() uintptr

	toMarkdown   func(path string) cResult
	toText       func(path string) cResult
	toJSON       func(path string, pretty bool) cResult
	getInfo      func(path string) cResult
	getPageCount func(path string) int32
	isPDF        func(path string) bool
	freeResult   func(r cResult)

	parseFile    func(path string) uintptr
	parseBytes   func(data uintptr, length uintptr) uintptr
	freeDocument func(h uintptr)

	documentToMarkdown func(h uintptr, flags int32) uintptr
	documentToText     func(h uintptr) uintptr
	documentToJSON     func(h uintptr, format int32) uintptr
	plainText          func(h uintptr) uintptr
	sectionCount       func(h uintptr) int32
	resourceCount      func(h uintptr) int32
	title              func(h uintptr) uintptr
	author             func(h uintptr) uintptr
	resourceIDs        func(h uintptr) uintptr
	resourceInfo       func(h uintptr, id string) uintptr
	resourceData       func(h uintptr, id string, outLen *uintptr) uintptr

	freeString func(p uintptr)
	freeBytes  func(p uintptr, length uintptr)

	path   string
	handle uintptr
	closed atomic.Bool
}

// binder resolves symbols and registers Go function values for them,
// collecting every missing symbol instead of stopping at the first.
type binder struct {
	handle  uintptr
	missing []string
	errs    []error
}

// lookup resolves name, recording it as missing when it is not exported.
func (b *binder) lookup(name string) uintptr {
	addr, err := dlsym(b.handle, name)
	if err != nil || addr == 0 {
		b.missing = append(b.missing, name)
		return 0
	}
	return addr
}

func (b *binder) bind(name string, fptr any) {
	addr := b.lookup(name)
	if addr == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.errs = append(b.errs, fmt.Errorf("%s: %v", name, r))
		}
	}()
	purego.RegisterFunc(fptr, addr)
}

func (b *binder) failed() bool {
	return len(b.missing) > 0 || len(b.errs) > 0
}

// Open loads the native library at path and binds every entry point.
// A library missing any entry point is rejected with a
// *errors.MissingSymbolsError and unloaded again.
func Open(path string) (*Library, error) {
	handle, err := dlopen(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("failed to open %s", path), err)
	}

	l := &Library{
		arena:  newArena(),
		path:   path,
		handle: handle,
	}

	b := &binder{handle: handle}
	l.bindEnvelopeCalls(b)
	b.bind(unpdf.SymVersion, &l.version)
	b.bind(unpdf.SymLastError, &l.lastError)
	b.bind(unpdf.SymGetPageCount, &l.getPageCount)
	b.bind(unpdf.SymIsPDF, &l.isPDF)
	b.bind(unpdf.SymParseFile, &l.parseFile)
	b.bind(unpdf.SymParseBytes, &l.parseBytes)
	b.bind(unpdf.SymFreeDocument, &l.freeDocument)
	b.bind(unpdf.SymDocumentToMarkdown, &l.documentToMarkdown)
	b.bind(unpdf.SymDocumentToText, &l.documentToText)
	b.bind(unpdf.SymDocumentToJSON, &l.documentToJSON)
	b.bind(unpdf.SymPlainText, &l.plainText)
	b.bind(unpdf.SymSectionCount, &l.sectionCount)
	b.bind(unpdf.SymResourceCount, &l.resourceCount)
	b.bind(unpdf.SymGetTitle, &l.title)
	b.bind(unpdf.SymGetAuthor, &l.author)
	b.bind(unpdf.SymResourceIDs, &l.resourceIDs)
	b.bind(unpdf.SymResourceInfo, &l.resourceInfo)
	b.bind(unpdf.SymResourceData, &l.resourceData)
	b.bind(unpdf.SymFreeString, &l.freeString)
	b.bind(unpdf.SymFreeBytes, &l.freeBytes)

	if len(b.missing) > 0 {
		_ = dlclose(handle)
		return nil, errors.NewMissingSymbolsError(path, b.missing)
	}
	if len(b.errs) > 0 {
		_ = dlclose(handle)
		return nil, errors.New(errors.PhaseBind, errors.KindUnsupported).
			Value(path).
			Detail("cannot bind %d entry point(s) on %s/%s", len(b.errs), runtime.GOOS, runtime.GOARCH).
			Cause(b.errs[0]).
			Build()
	}

	Logger().Debug("bound native library", zap.String("path", path), zap.Int("symbols", len(unpdf.Symbols)))
	return l, nil
}

// OpenLibrary is Open with the unpdf.Library return type loader expects.
func OpenLibrary(path string) (unpdf.Library, error) {
	l, err := Open(path)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Do runs fn locked to the current OS thread, the thread the engine's
// last-error slot is bound to.
func (l *Library) Do(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn()
}

func (l *Library) Version() unpdf.Ptr   { return unpdf.Ptr(l.version()) }
func (l *Library) LastError() unpdf.Ptr { return unpdf.Ptr(l.lastError()) }

func (l *Library) ToMarkdown(path string) unpdf.Envelope {
	return l.toMarkdown(path).envelope()
}

func (l *Library) ToText(path string) unpdf.Envelope {
	return l.toText(path).envelope()
}

func (l *Library) ToJSON(path string, pretty bool) unpdf.Envelope {
	return l.toJSON(path, pretty).envelope()
}

func (l *Library) GetInfo(path string) unpdf.Envelope {
	return l.getInfo(path).envelope()
}

func (l *Library) GetPageCount(path string) int32 { return l.getPageCount(path) }
func (l *Library) IsPDF(path string) bool         { return l.isPDF(path) }

func (l *Library) FreeResult(env unpdf.Envelope) {
	l.freeResult(fromEnvelope(env))
}

func (l *Library) ParseFile(path string) unpdf.Handle {
	return unpdf.Handle(l.parseFile(path))
}

func (l *Library) ParseBytes(data unpdf.Ptr, length int) unpdf.Handle {
	return unpdf.Handle(l.parseBytes(uintptr(data), uintptr(length)))
}

func (l *Library) FreeDocument(h unpdf.Handle) { l.freeDocument(uintptr(h)) }

func (l *Library) DocumentToMarkdown(h unpdf.Handle, flags unpdf.Flags) unpdf.Ptr {
	return unpdf.Ptr(l.documentToMarkdown(uintptr(h), int32(flags)))
}

func (l *Library) DocumentToText(h unpdf.Handle) unpdf.Ptr {
	return unpdf.Ptr(l.documentToText(uintptr(h)))
}

func (l *Library) DocumentToJSON(h unpdf.Handle, format unpdf.JSONFormat) unpdf.Ptr {
	return unpdf.Ptr(l.documentToJSON(uintptr(h), int32(format)))
}

func (l *Library) PlainText(h unpdf.Handle) unpdf.Ptr   { return unpdf.Ptr(l.plainText(uintptr(h))) }
func (l *Library) SectionCount(h unpdf.Handle) int32    { return l.sectionCount(uintptr(h)) }
func (l *Library) ResourceCount(h unpdf.Handle) int32   { return l.resourceCount(uintptr(h)) }
func (l *Library) Title(h unpdf.Handle) unpdf.Ptr       { return unpdf.Ptr(l.title(uintptr(h))) }
func (l *Library) Author(h unpdf.Handle) unpdf.Ptr      { return unpdf.Ptr(l.author(uintptr(h))) }
func (l *Library) ResourceIDs(h unpdf.Handle) unpdf.Ptr { return unpdf.Ptr(l.resourceIDs(uintptr(h))) }

func (l *Library) ResourceInfo(h unpdf.Handle, id string) unpdf.Ptr {
	return unpdf.Ptr(l.resourceInfo(uintptr(h), id))
}

func (l *Library) ResourceData(h unpdf.Handle, id string) (unpdf.Ptr, int) {
	var n uintptr
	p := l.resourceData(uintptr(h), id, &n)
	return unpdf.Ptr(p), int(n)
}

func (l *Library) FreeString(p unpdf.Ptr) { l.freeString(uintptr(p)) }

func (l *Library) FreeBytes(p unpdf.Ptr, length int) {
	l.freeBytes(uintptr(p), uintptr(length))
}

// Close releases outstanding temporary buffers and unloads the library.
// It is safe to call more than once.
func (l *Library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.arena.release()
	if err := dlclose(l.handle); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindLoad, err, "failed to unload "+l.path)
	}
	Logger().Debug("unloaded native library", zap.String("path", l.path))
	return nil
}

var _ unpdf.Library = (*Library)(nil)
