package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

const (
	fakeVersion = "0.4.2-test"
	pdfMagic    = "%PDF-"
)

type fakeResource struct {
	id   string
	mime string
	data []byte
}

// fakeDoc is what the fake engine knows about one PDF.
type fakeDoc struct {
	name      string
	markdown  string
	text      string
	title     string
	author    string
	pages     int32
	resources []fakeResource

	// failRender makes every renderer and counter fail
	failRender bool
	// garbled makes resource queries return malformed JSON
	garbled bool
}

// block is one engine-side allocation.
type block struct {
	kind string // string, bytes, envelope, input
	data []byte
	free bool
}

// fakeLib is an in-memory unpdf.Library that records every allocation and
// release and flags protocol violations: double frees, frees of unknown or
// static memory, calls outside Do, owned payloads requested while another
// is unreleased, and LastError queries not preceded by a failure.
type fakeLib struct {
	mu sync.Mutex // held by Do

	files   map[string]*fakeDoc // by absolute path
	byName  map[string]*fakeDoc
	handles map[unpdf.Handle]*fakeDoc

	blocks  map[unpdf.Ptr]*block
	static  map[unpdf.Ptr]string
	next    unpdf.Ptr
	nextDoc unpdf.Handle

	inDo       bool
	lastFailed bool
	lastError  unpdf.Ptr
	fault      error
	trap       string // symbol that traps on its next call
	allocFail  bool

	// unreadableErrors makes every error message string fail to read
	unreadableErrors bool
	unreadable       map[unpdf.Ptr]bool

	calls      map[string]int
	paths      []string
	lastFlags  unpdf.Flags
	freedDocs  int
	errQueries int
	closed     int
	violations []string
}

func newFakeLib() *fakeLib {
	f := &fakeLib{
		files:      make(map[string]*fakeDoc),
		byName:     make(map[string]*fakeDoc),
		handles:    make(map[unpdf.Handle]*fakeDoc),
		blocks:     make(map[unpdf.Ptr]*block),
		static:     make(map[unpdf.Ptr]string),
		unreadable: make(map[unpdf.Ptr]bool),
		calls:      make(map[string]int),
		next:       0x1000,
		nextDoc:    1,
	}
	f.static[0x10] = fakeVersion
	return f
}

// addFile registers doc under the absolute path abs and under doc.name for
// ParseBytes, whose input is "%PDF-" followed by the name.
func (f *fakeLib) addFile(abs string, doc *fakeDoc) {
	f.files[abs] = doc
	f.byName[doc.name] = doc
}

func pdfBytes(name string) []byte {
	return []byte(pdfMagic + name)
}

// inspect runs fn with the fake's state locked.
func (f *fakeLib) inspect(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *fakeLib) violate(format string, args ...any) {
	f.violations = append(f.violations, fmt.Sprintf(format, args...))
}

// enter records a call to an entry point.
func (f *fakeLib) enter(sym string) {
	if !f.inDo {
		f.violate("%s called outside Do", sym)
	}
	f.calls[sym]++
	f.lastFailed = false
}

// fail sets the thread-local error slot. Its string stays engine-owned.
func (f *fakeLib) fail(format string, args ...any) {
	f.lastFailed = true
	f.lastError = f.next
	f.next += 0x100
	f.static[f.lastError] = fmt.Sprintf(format, args...)
	f.unreadable[f.lastError] = f.unreadableErrors
}

// trapped reports whether sym should trap now, recording the fault.
func (f *fakeLib) trapped(sym string) bool {
	if f.trap != sym {
		return false
	}
	f.trap = ""
	f.fault = errors.Trap(sym, fmt.Errorf("wasm error: unreachable"))
	return true
}

func (f *fakeLib) alloc(kind string, data []byte) unpdf.Ptr {
	p := f.next
	f.next += unpdf.Ptr(len(data)) + 0x10
	f.blocks[p] = &block{kind: kind, data: data}
	return p
}

func (f *fakeLib) pending() int {
	n := 0
	for _, b := range f.blocks {
		if !b.free && b.kind != "input" {
			n++
		}
	}
	return n
}

// own hands out an owned payload.
func (f *fakeLib) own(kind string, data []byte) unpdf.Ptr {
	if n := f.pending(); n > 0 {
		f.violate("owned %s requested while %d payload(s) unreleased", kind, n)
	}
	return f.alloc(kind, data)
}

func (f *fakeLib) ownString(kind, s string) unpdf.Ptr {
	return f.own(kind, []byte(s+"\x00"))
}

func (f *fakeLib) release(p unpdf.Ptr, kind, via string) {
	if p == 0 {
		f.violate("%s called with null", via)
		return
	}
	if _, ok := f.static[p]; ok {
		f.violate("%s released engine-owned static string at %#x", via, p)
		return
	}
	b, ok := f.blocks[p]
	switch {
	case !ok:
		f.violate("%s released unknown pointer %#x", via, p)
	case b.free:
		f.violate("%s released %#x twice", via, p)
	case b.kind != kind:
		f.violate("%s released a %s payload at %#x", via, b.kind, p)
	default:
		b.free = true
	}
}

// leaks lists every allocation not yet released.
func (f *fakeLib) leaks() []string {
	var out []string
	for p, b := range f.blocks {
		if !b.free {
			out = append(out, fmt.Sprintf("%s at %#x", b.kind, p))
		}
	}
	for h, d := range f.handles {
		out = append(out, fmt.Sprintf("document %q (handle %d)", d.name, h))
	}
	return out
}

// assertClean fails t on any leak or protocol violation.
func (f *fakeLib) assertClean(t *testing.T) {
	t.Helper()
	f.inspect(func() {
		for _, v := range f.violations {
			t.Errorf("protocol violation: %s", v)
		}
		for _, l := range f.leaks() {
			t.Errorf("leaked %s", l)
		}
	})
}

func (f *fakeLib) callCount(sym string) int {
	var n int
	f.inspect(func() { n = f.calls[sym] })
	return n
}

func (f *fakeLib) Do(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inDo = true
	defer func() { f.inDo = false }()
	fn()
}

func (f *fakeLib) Fault() error {
	err := f.fault
	f.fault = nil
	return err
}

// Memory

func (f *fakeLib) lookup(p unpdf.Ptr) ([]byte, error) {
	if p == 0 {
		return nil, errors.NilPointer(errors.PhaseMemory, "read")
	}
	if s, ok := f.static[p]; ok {
		return []byte(s + "\x00"), nil
	}
	b, ok := f.blocks[p]
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint64(p), 0)
	}
	if b.free {
		f.violate("read of released memory at %#x", p)
	}
	return b.data, nil
}

func (f *fakeLib) Read(p unpdf.Ptr, length int) ([]byte, error) {
	data, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	if length > len(data) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint64(p), length)
	}
	return append([]byte(nil), data[:length]...), nil
}

func (f *fakeLib) ReadCString(p unpdf.Ptr) (string, error) {
	if f.unreadable[p] {
		return "", errors.OutOfBounds(errors.PhaseMemory, uint64(p), 0)
	}
	data, err := f.lookup(p)
	if err != nil {
		return "", err
	}
	s, _, _ := strings.Cut(string(data), "\x00")
	return s, nil
}

func (f *fakeLib) Write(p unpdf.Ptr, data []byte) error {
	b, ok := f.blocks[p]
	if !ok || b.kind != "input" || len(data) > len(b.data) {
		return errors.OutOfBounds(errors.PhaseMemory, uint64(p), len(data))
	}
	copy(b.data, data)
	return nil
}

func (f *fakeLib) Alloc(size int) (unpdf.Ptr, error) {
	if !f.inDo {
		f.violate("Alloc called outside Do")
	}
	if f.allocFail {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, nil)
	}
	return f.alloc("input", make([]byte, size)), nil
}

func (f *fakeLib) Free(p unpdf.Ptr, size int) {
	if b, ok := f.blocks[p]; ok && len(b.data) != size {
		f.violate("Free(%#x) with size %d, allocated %d", p, size, len(b.data))
	}
	f.release(p, "input", "Free")
}

// Stateless calls

func (f *fakeLib) Version() unpdf.Ptr {
	f.enter(unpdf.SymVersion)
	return 0x10
}

func (f *fakeLib) LastError() unpdf.Ptr {
	f.errQueries++
	if !f.inDo {
		f.violate("LastError called outside Do")
	}
	if !f.lastFailed {
		f.violate("LastError queried without a preceding failure")
	}
	return f.lastError
}

func (f *fakeLib) file(sym, path string) (*fakeDoc, bool) {
	f.enter(sym)
	f.paths = append(f.paths, path)
	d, ok := f.files[path]
	return d, ok
}

func (f *fakeLib) envelope(sym, path string, render func(d *fakeDoc) string) unpdf.Envelope {
	d, ok := f.file(sym, path)
	if !ok {
		p := f.ownString("envelope", "file not found: "+path)
		f.unreadable[p] = f.unreadableErrors
		return unpdf.Envelope{Error: p}
	}
	return unpdf.Envelope{Success: true, Data: f.ownString("envelope", render(d))}
}

func (f *fakeLib) ToMarkdown(path string) unpdf.Envelope {
	return f.envelope(unpdf.SymToMarkdown, path, func(d *fakeDoc) string { return d.markdown })
}

func (f *fakeLib) ToText(path string) unpdf.Envelope {
	return f.envelope(unpdf.SymToText, path, func(d *fakeDoc) string { return d.text })
}

func (f *fakeLib) ToJSON(path string, pretty bool) unpdf.Envelope {
	return f.envelope(unpdf.SymToJSON, path, func(d *fakeDoc) string {
		return renderJSON(d, !pretty)
	})
}

func (f *fakeLib) GetInfo(path string) unpdf.Envelope {
	return f.envelope(unpdf.SymGetInfo, path, func(d *fakeDoc) string {
		return fmt.Sprintf(`{"title":%q,"author":%q,"pdf_version":"1.7","page_count":%d,"encrypted":false}`,
			d.title, d.author, d.pages)
	})
}

func (f *fakeLib) GetPageCount(path string) int32 {
	if d, ok := f.file(unpdf.SymGetPageCount, path); ok {
		return d.pages
	}
	return -1
}

func (f *fakeLib) IsPDF(path string) bool {
	_, ok := f.file(unpdf.SymIsPDF, path)
	return ok
}

func (f *fakeLib) FreeResult(env unpdf.Envelope) {
	f.enter(unpdf.SymFreeResult)
	if env.Success == (env.Data == 0) || (env.Data != 0 && env.Error != 0) {
		f.violate("FreeResult with inconsistent envelope %+v", env)
	}
	if env.Data != 0 {
		f.release(env.Data, "envelope", "FreeResult")
	}
	if env.Error != 0 {
		f.release(env.Error, "envelope", "FreeResult")
	}
}

// Documents

func (f *fakeLib) open(d *fakeDoc) unpdf.Handle {
	h := f.nextDoc
	f.nextDoc++
	f.handles[h] = d
	return h
}

func (f *fakeLib) ParseFile(path string) unpdf.Handle {
	d, ok := f.file(unpdf.SymParseFile, path)
	if !ok {
		f.fail("failed to parse %s: not a PDF file", path)
		return 0
	}
	return f.open(d)
}

func (f *fakeLib) ParseBytes(data unpdf.Ptr, length int) unpdf.Handle {
	f.enter(unpdf.SymParseBytes)
	raw, err := f.Read(data, length)
	if err != nil {
		f.violate("ParseBytes input unreadable: %v", err)
		f.fail("invalid input buffer")
		return 0
	}
	name, ok := strings.CutPrefix(string(raw), pdfMagic)
	if !ok {
		f.fail("invalid PDF header")
		return 0
	}
	d, ok := f.byName[name]
	if !ok {
		f.fail("unknown document %q", name)
		return 0
	}
	return f.open(d)
}

func (f *fakeLib) FreeDocument(h unpdf.Handle) {
	f.enter(unpdf.SymFreeDocument)
	if _, ok := f.handles[h]; !ok {
		f.violate("FreeDocument of unknown or released handle %d", h)
		return
	}
	delete(f.handles, h)
	f.freedDocs++
}

func (f *fakeLib) doc(sym string, h unpdf.Handle) (*fakeDoc, bool) {
	f.enter(sym)
	d, ok := f.handles[h]
	if !ok {
		f.violate("%s on unknown or released handle %d", sym, h)
		f.fail("invalid handle")
	}
	return d, ok
}

func (f *fakeLib) render(sym string, h unpdf.Handle, fn func(d *fakeDoc) string) unpdf.Ptr {
	d, ok := f.doc(sym, h)
	if !ok {
		return 0
	}
	if f.trapped(sym) {
		return 0
	}
	if d.failRender {
		f.fail("%s: content stream of %s is corrupt", sym, d.name)
		return 0
	}
	return f.ownString("string", fn(d))
}

func renderJSON(d *fakeDoc, compact bool) string {
	if compact {
		return fmt.Sprintf(`{"title":%q,"pages":%d}`, d.title, d.pages)
	}
	return fmt.Sprintf("{\n  \"title\": %q,\n  \"pages\": %d\n}", d.title, d.pages)
}

func (f *fakeLib) DocumentToMarkdown(h unpdf.Handle, flags unpdf.Flags) unpdf.Ptr {
	f.lastFlags = flags
	return f.render(unpdf.SymDocumentToMarkdown, h, func(d *fakeDoc) string {
		if flags.Has(unpdf.FlagFrontmatter) {
			return fmt.Sprintf("---\ntitle: %s\npages: %d\n---\n\n%s", d.title, d.pages, d.markdown)
		}
		return d.markdown
	})
}

func (f *fakeLib) DocumentToText(h unpdf.Handle) unpdf.Ptr {
	return f.render(unpdf.SymDocumentToText, h, func(d *fakeDoc) string { return d.text })
}

func (f *fakeLib) DocumentToJSON(h unpdf.Handle, format unpdf.JSONFormat) unpdf.Ptr {
	return f.render(unpdf.SymDocumentToJSON, h, func(d *fakeDoc) string {
		return renderJSON(d, format == unpdf.JSONCompact)
	})
}

func (f *fakeLib) PlainText(h unpdf.Handle) unpdf.Ptr {
	return f.render(unpdf.SymPlainText, h, func(d *fakeDoc) string {
		return strings.Join(strings.Fields(d.text), " ")
	})
}

func (f *fakeLib) counter(sym string, h unpdf.Handle, n func(d *fakeDoc) int32) int32 {
	d, ok := f.doc(sym, h)
	if !ok {
		return -1
	}
	if d.failRender {
		f.fail("%s: page tree of %s is corrupt", sym, d.name)
		return -1
	}
	return n(d)
}

func (f *fakeLib) SectionCount(h unpdf.Handle) int32 {
	return f.counter(unpdf.SymSectionCount, h, func(d *fakeDoc) int32 { return d.pages })
}

func (f *fakeLib) ResourceCount(h unpdf.Handle) int32 {
	return f.counter(unpdf.SymResourceCount, h, func(d *fakeDoc) int32 { return int32(len(d.resources)) })
}

func (f *fakeLib) optional(sym string, h unpdf.Handle, value func(d *fakeDoc) string) unpdf.Ptr {
	d, ok := f.doc(sym, h)
	if !ok {
		return 0
	}
	if f.trapped(sym) {
		return 0
	}
	v := value(d)
	if v == "" {
		return 0
	}
	return f.ownString("string", v)
}

func (f *fakeLib) Title(h unpdf.Handle) unpdf.Ptr {
	return f.optional(unpdf.SymGetTitle, h, func(d *fakeDoc) string { return d.title })
}

func (f *fakeLib) Author(h unpdf.Handle) unpdf.Ptr {
	return f.optional(unpdf.SymGetAuthor, h, func(d *fakeDoc) string { return d.author })
}

func (f *fakeLib) ResourceIDs(h unpdf.Handle) unpdf.Ptr {
	return f.render(unpdf.SymResourceIDs, h, func(d *fakeDoc) string {
		if d.garbled {
			return "[img1,"
		}
		ids := []string{}
		for _, r := range d.resources {
			ids = append(ids, r.id)
		}
		out, _ := json.Marshal(ids)
		return string(out)
	})
}

func (d *fakeDoc) resource(id string) (fakeResource, bool) {
	for _, r := range d.resources {
		if r.id == id {
			return r, true
		}
	}
	return fakeResource{}, false
}

func (f *fakeLib) ResourceInfo(h unpdf.Handle, id string) unpdf.Ptr {
	return f.optional(unpdf.SymResourceInfo, h, func(d *fakeDoc) string {
		r, ok := d.resource(id)
		if !ok {
			return ""
		}
		if d.garbled {
			return "{"
		}
		return fmt.Sprintf(`{"id":%q,"mime_type":%q,"resource_type":"image","size":%d,"width":640,"height":480}`,
			r.id, r.mime, len(r.data))
	})
}

func (f *fakeLib) ResourceData(h unpdf.Handle, id string) (unpdf.Ptr, int) {
	d, ok := f.doc(unpdf.SymResourceData, h)
	if !ok {
		return 0, 0
	}
	r, ok := d.resource(id)
	if !ok {
		return 0, 0
	}
	return f.own("bytes", append([]byte(nil), r.data...)), len(r.data)
}

func (f *fakeLib) FreeString(p unpdf.Ptr) {
	f.enter(unpdf.SymFreeString)
	if b, ok := f.blocks[p]; ok && b.kind == "bytes" {
		f.violate("FreeString on a byte buffer at %#x", p)
		return
	}
	f.release(p, "string", "FreeString")
}

func (f *fakeLib) FreeBytes(p unpdf.Ptr, length int) {
	f.enter(unpdf.SymFreeBytes)
	if b, ok := f.blocks[p]; ok && len(b.data) != length {
		f.violate("FreeBytes(%#x) with length %d, allocated %d", p, length, len(b.data))
	}
	f.release(p, "bytes", "FreeBytes")
}

func (f *fakeLib) Close() error {
	f.inspect(func() { f.closed++ })
	return nil
}

var (
	_ unpdf.Library = (*fakeLib)(nil)
	_ unpdf.Faulter = (*fakeLib)(nil)
)
