package runtime

import (
	"path/filepath"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// absPath resolves path against the working directory so the engine never
// sees a relative path.
func absPath(phase errors.Phase, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(phase, errors.KindInvalidInput, err, "cannot resolve path "+path)
	}
	return abs, nil
}

// convert runs one stateless envelope call on path.
func (r *Runtime) convert(op, path string, fn func(path string) unpdf.Envelope) (string, error) {
	abs, err := absPath(errors.PhaseConvert, path)
	if err != nil {
		return "", err
	}

	var out string
	if cerr := r.call(op, func() {
		out, err = r.takeEnvelope(op, fn(abs))
	}); cerr != nil {
		return "", cerr
	}
	return out, err
}

// ToMarkdown converts the PDF at path to Markdown.
func (r *Runtime) ToMarkdown(path string) (string, error) {
	return r.convert(unpdf.SymToMarkdown, path, r.lib.ToMarkdown)
}

// ToText converts the PDF at path to plain text.
func (r *Runtime) ToText(path string) (string, error) {
	return r.convert(unpdf.SymToText, path, r.lib.ToText)
}

// ToJSON converts the PDF at path to the engine's JSON document model.
func (r *Runtime) ToJSON(path string, pretty bool) (string, error) {
	return r.convert(unpdf.SymToJSON, path, func(p string) unpdf.Envelope {
		return r.lib.ToJSON(p, pretty)
	})
}

// GetInfoJSON returns the document-info JSON for the PDF at path as
// produced by the engine.
func (r *Runtime) GetInfoJSON(path string) (string, error) {
	return r.convert(unpdf.SymGetInfo, path, r.lib.GetInfo)
}

// GetInfo returns the metadata of the PDF at path.
func (r *Runtime) GetInfo(path string) (*unpdf.DocumentInfo, error) {
	raw, err := r.GetInfoJSON(path)
	if err != nil {
		return nil, err
	}
	info, err := unpdf.ParseDocumentInfo([]byte(raw))
	if err != nil {
		return nil, errors.Decode(unpdf.SymGetInfo, err)
	}
	return info, nil
}

// GetPageCount returns the number of pages of the PDF at path, or -1 when
// the file cannot be read.
func (r *Runtime) GetPageCount(path string) int {
	abs, err := absPath(errors.PhaseConvert, path)
	if err != nil {
		return -1
	}

	n := int32(-1)
	if err := r.call(unpdf.SymGetPageCount, func() {
		n = r.lib.GetPageCount(abs)
		r.discardFault(unpdf.SymGetPageCount)
	}); err != nil || n < 0 {
		return -1
	}
	return int(n)
}

// IsPDF reports whether path names a readable PDF file.
func (r *Runtime) IsPDF(path string) bool {
	abs, err := absPath(errors.PhaseConvert, path)
	if err != nil {
		return false
	}

	ok := false
	if err := r.call(unpdf.SymIsPDF, func() {
		ok = r.lib.IsPDF(abs)
		r.discardFault(unpdf.SymIsPDF)
	}); err != nil {
		return false
	}
	return ok
}
