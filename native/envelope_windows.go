//go:build windows

package native

import "github.com/iyulab/unpdf"

// bindEnvelopeCalls binds the calls that return or take the result struct
// by value. The x64 calling convention returns structs wider than 8 bytes
// through a hidden pointer passed as the first argument and passes them by
// reference to a caller-owned copy.
func (l *Library) bindEnvelopeCalls(b *binder) {
	var (
		toMarkdown func(ret *cResult, path string) uintptr
		toText     func(ret *cResult, path string) uintptr
		toJSON     func(ret *cResult, path string, pretty bool) uintptr
		getInfo    func(ret *cResult, path string) uintptr
		freeResult func(r *cResult)
	)
	b.bind(unpdf.SymToMarkdown, &toMarkdown)
	b.bind(unpdf.SymToText, &toText)
	b.bind(unpdf.SymToJSON, &toJSON)
	b.bind(unpdf.SymGetInfo, &getInfo)
	b.bind(unpdf.SymFreeResult, &freeResult)

	if b.failed() {
		return
	}

	l.toMarkdown = func(path string) (r cResult) {
		toMarkdown(&r, path)
		return r
	}
	l.toText = func(path string) (r cResult) {
		toText(&r, path)
		return r
	}
	l.toJSON = func(path string, pretty bool) (r cResult) {
		toJSON(&r, path, pretty)
		return r
	}
	l.getInfo = func(path string) (r cResult) {
		getInfo(&r, path)
		return r
	}
	l.freeResult = func(r cResult) {
		freeResult(&r)
	}
}
