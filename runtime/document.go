package runtime

import (
	stderrors "errors"
	"io/fs"
	"os"
	goruntime "runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
	"github.com/iyulab/unpdf/handle"
	"github.com/iyulab/unpdf/metrics"
)

// docState is the table entry for a live engine handle. Dropping it frees
// the handle; the table guarantees Drop runs once.
type docState struct {
	lib     unpdf.Library
	metrics *metrics.Metrics
	handle  unpdf.Handle
	id      uuid.UUID
	dead    atomic.Bool
}

func (s *docState) Drop() {
	if !s.dead.CompareAndSwap(false, true) {
		return
	}
	s.lib.Do(func() {
		s.lib.FreeDocument(s.handle)
	})
	s.metrics.Released(metrics.KindDocument)
}

var _ handle.Dropper = (*docState)(nil)

// Document is a parsed PDF held by the engine. It must be closed to release
// the engine's memory; an unreachable Document that was never closed is
// released by the garbage collector.
//
// A Document is not safe for concurrent use.
type Document struct {
	rt      *Runtime
	state   *docState
	cleanup goruntime.Cleanup
	key     handle.ID
	closed  atomic.Bool
}

type cleanupArg struct {
	docs *handle.Table
	key  handle.ID
	id   uuid.UUID
}

func reclaim(arg cleanupArg) {
	if _, ok := arg.docs.Remove(arg.key); ok {
		Logger().Warn("document reclaimed without Close", zap.Stringer("id", arg.id))
	}
}

// ParseFile parses the PDF at path.
func (r *Runtime) ParseFile(path string) (*Document, error) {
	const op = unpdf.SymParseFile

	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound(errors.PhaseParse, "file", path)
		}
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "cannot stat "+path)
	}
	abs, err := absPath(errors.PhaseParse, path)
	if err != nil {
		return nil, err
	}

	var h unpdf.Handle
	if cerr := r.call(op, func() {
		if h = r.lib.ParseFile(abs); h == 0 {
			err = r.nativeFailure(errors.PhaseParse, op)
		}
	}); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}
	return r.adopt(op, h)
}

// ParseBytes parses a PDF held in memory. The engine works on a temporary
// copy of data that is released before ParseBytes returns.
func (r *Runtime) ParseBytes(data []byte) (*Document, error) {
	const op = unpdf.SymParseBytes

	if len(data) == 0 {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Op(op).
			Detail("empty input buffer").
			Build()
	}

	var (
		h   unpdf.Handle
		err error
	)
	if cerr := r.call(op, func() {
		p, aerr := r.lib.Alloc(len(data))
		if aerr != nil {
			err = aerr
			return
		}
		r.metrics.Allocated(metrics.KindInput)
		defer func() {
			r.lib.Free(p, len(data))
			r.metrics.Released(metrics.KindInput)
		}()

		if err = r.lib.Write(p, data); err != nil {
			return
		}
		if h = r.lib.ParseBytes(p, len(data)); h == 0 {
			err = r.nativeFailure(errors.PhaseParse, op)
		}
	}); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}
	return r.adopt(op, h)
}

// adopt registers a fresh handle and wraps it.
func (r *Runtime) adopt(op string, h unpdf.Handle) (*Document, error) {
	s := &docState{
		lib:     r.lib,
		metrics: r.metrics,
		handle:  h,
		id:      uuid.New(),
	}
	r.metrics.Allocated(metrics.KindDocument)

	key := r.docs.Insert(s)
	if key == 0 {
		// closed concurrently
		s.Drop()
		return nil, errors.Closed(op)
	}

	d := &Document{rt: r, state: s, key: key}
	d.cleanup = goruntime.AddCleanup(d, reclaim, cleanupArg{docs: r.docs, key: key, id: s.id})
	return d, nil
}

// ID identifies the document in logs.
func (d *Document) ID() uuid.UUID {
	return d.state.id
}

// Close releases the engine handle. Calling Close again is a no-op.
func (d *Document) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.cleanup.Stop()
	d.rt.docs.Remove(d.key)
	return nil
}

// do runs fn with the live handle, or fails without crossing the boundary
// once the document is disposed.
func (d *Document) do(op string, fn func(h unpdf.Handle)) error {
	if d.state.dead.Load() {
		return errors.Disposed(op)
	}
	return d.rt.call(op, func() {
		fn(d.state.handle)
	})
}

// requiredString calls fn and takes the owned string it returns. A null
// result is a failure.
func (d *Document) requiredString(phase errors.Phase, op string, fn func(h unpdf.Handle) unpdf.Ptr) (string, error) {
	var (
		out string
		err error
	)
	if cerr := d.do(op, func(h unpdf.Handle) {
		p := fn(h)
		if p == 0 {
			err = d.rt.nativeFailure(phase, op)
			return
		}
		out, err = d.rt.takeString(p)
	}); cerr != nil {
		return "", cerr
	}
	return out, err
}

// optionalString is requiredString for calls where null means absent.
func (d *Document) optionalString(op string, fn func(h unpdf.Handle) unpdf.Ptr) (string, bool, error) {
	var (
		out string
		ok  bool
		err error
	)
	if cerr := d.do(op, func(h unpdf.Handle) {
		p := fn(h)
		if p == 0 {
			err = d.rt.absent(op)
			return
		}
		out, err = d.rt.takeString(p)
		ok = err == nil
	}); cerr != nil {
		return "", false, cerr
	}
	return out, ok, err
}

func (d *Document) count(op string, fn func(h unpdf.Handle) int32) (int, error) {
	var (
		n   int32
		err error
	)
	if cerr := d.do(op, func(h unpdf.Handle) {
		if n = fn(h); n < 0 {
			err = d.rt.nativeFailure(errors.PhaseQuery, op)
		}
	}); cerr != nil {
		return 0, cerr
	}
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ToMarkdown renders the document as Markdown.
func (d *Document) ToMarkdown(opts unpdf.MarkdownOptions) (string, error) {
	flags := opts.Flags()
	return d.requiredString(errors.PhaseRender, unpdf.SymDocumentToMarkdown, func(h unpdf.Handle) unpdf.Ptr {
		return d.rt.lib.DocumentToMarkdown(h, flags)
	})
}

// ToText renders the document as plain text with layout preserved.
func (d *Document) ToText() (string, error) {
	return d.requiredString(errors.PhaseRender, unpdf.SymDocumentToText, d.rt.lib.DocumentToText)
}

// ToJSON renders the document model as JSON.
func (d *Document) ToJSON(compact bool) (string, error) {
	format := unpdf.JSONFormatFor(compact)
	return d.requiredString(errors.PhaseRender, unpdf.SymDocumentToJSON, func(h unpdf.Handle) unpdf.Ptr {
		return d.rt.lib.DocumentToJSON(h, format)
	})
}

// PlainText returns the document text without any formatting.
func (d *Document) PlainText() (string, error) {
	return d.requiredString(errors.PhaseRender, unpdf.SymPlainText, d.rt.lib.PlainText)
}

// SectionCount returns the number of sections (pages).
func (d *Document) SectionCount() (int, error) {
	return d.count(unpdf.SymSectionCount, d.rt.lib.SectionCount)
}

// ResourceCount returns the number of embedded resources.
func (d *Document) ResourceCount() (int, error) {
	return d.count(unpdf.SymResourceCount, d.rt.lib.ResourceCount)
}

// Title returns the document title; ok is false when it has none.
func (d *Document) Title() (title string, ok bool, err error) {
	return d.optionalString(unpdf.SymGetTitle, d.rt.lib.Title)
}

// Author returns the document author; ok is false when it has none.
func (d *Document) Author() (author string, ok bool, err error) {
	return d.optionalString(unpdf.SymGetAuthor, d.rt.lib.Author)
}

// ResourceIDs lists the ids of the embedded resources. The result is never
// nil on success.
func (d *Document) ResourceIDs() ([]string, error) {
	raw, err := d.requiredString(errors.PhaseQuery, unpdf.SymResourceIDs, d.rt.lib.ResourceIDs)
	if err != nil {
		return nil, err
	}
	ids, err := unpdf.ParseResourceIDs([]byte(raw))
	if err != nil {
		return nil, errors.Decode(unpdf.SymResourceIDs, err)
	}
	return ids, nil
}

// ResourceInfo describes the resource id, or returns nil when the document
// has no such resource.
func (d *Document) ResourceInfo(id string) (*unpdf.ResourceInfo, error) {
	raw, ok, err := d.optionalString(unpdf.SymResourceInfo, func(h unpdf.Handle) unpdf.Ptr {
		return d.rt.lib.ResourceInfo(h, id)
	})
	if err != nil || !ok {
		return nil, err
	}
	info, err := unpdf.ParseResourceInfo([]byte(raw))
	if err != nil {
		return nil, errors.Decode(unpdf.SymResourceInfo, err)
	}
	return info, nil
}

// ResourceData returns the raw bytes of resource id, or nil when the
// document has no such resource.
func (d *Document) ResourceData(id string) ([]byte, error) {
	const op = unpdf.SymResourceData

	var (
		data []byte
		err  error
	)
	if cerr := d.do(op, func(h unpdf.Handle) {
		p, n := d.rt.lib.ResourceData(h, id)
		if p == 0 {
			err = d.rt.absent(op)
			return
		}
		data, err = d.rt.takeBytes(p, n)
	}); cerr != nil {
		return nil, cerr
	}
	return data, err
}

// Info summarizes the document.
func (d *Document) Info() (unpdf.Summary, error) {
	var s unpdf.Summary
	var err error

	if s.Title, _, err = d.Title(); err != nil {
		return unpdf.Summary{}, err
	}
	if s.Author, _, err = d.Author(); err != nil {
		return unpdf.Summary{}, err
	}
	if s.SectionCount, err = d.SectionCount(); err != nil {
		return unpdf.Summary{}, err
	}
	if s.ResourceCount, err = d.ResourceCount(); err != nil {
		return unpdf.Summary{}, err
	}
	return s, nil
}

// Resources describes every embedded resource, in engine order.
func (d *Document) Resources() ([]*unpdf.ResourceInfo, error) {
	ids, err := d.ResourceIDs()
	if err != nil {
		return nil, err
	}

	out := make([]*unpdf.ResourceInfo, 0, len(ids))
	for _, id := range ids {
		info, err := d.ResourceInfo(id)
		if err != nil {
			return nil, err
		}
		if info != nil {
			out = append(out, info)
		}
	}
	return out, nil
}
