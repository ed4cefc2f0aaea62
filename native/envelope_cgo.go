//go:build cgo && (freebsd || linux || netbsd)

package native

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

// Same layout as the engine's result struct. success is a C bool, which
// is one byte on every supported ABI.
typedef struct {
	uint8_t success;
	char *data;
	char *error_msg;
} unpdf_result;

typedef unpdf_result (*unpdf_path_fn)(const char *);
typedef unpdf_result (*unpdf_path_flag_fn)(const char *, bool);
typedef void (*unpdf_free_result_fn)(unpdf_result);

static void unpdf_call_path(uintptr_t fn, const char *path, unpdf_result *out) {
	*out = ((unpdf_path_fn)fn)(path);
}

static void unpdf_call_path_flag(uintptr_t fn, const char *path, int flag, unpdf_result *out) {
	*out = ((unpdf_path_flag_fn)fn)(path, flag != 0);
}

static void unpdf_call_free_result(uintptr_t fn, unpdf_result *r) {
	((unpdf_free_result_fn)fn)(*r);
}
*/
import "C"

import (
	"unsafe"

	"github.com/iyulab/unpdf"
)

// bindEnvelopeCalls routes the calls that return or take the result struct
// by value through C trampolines.
func (l *Library) bindEnvelopeCalls(b *binder) {
	toMarkdown := b.lookup(unpdf.SymToMarkdown)
	toText := b.lookup(unpdf.SymToText)
	toJSON := b.lookup(unpdf.SymToJSON)
	getInfo := b.lookup(unpdf.SymGetInfo)
	freeResult := b.lookup(unpdf.SymFreeResult)

	l.toMarkdown = func(path string) cResult { return callPath(toMarkdown, path) }
	l.toText = func(path string) cResult { return callPath(toText, path) }
	l.toJSON = func(path string, pretty bool) cResult { return callPathFlag(toJSON, path, pretty) }
	l.getInfo = func(path string) cResult { return callPath(getInfo, path) }
	l.freeResult = func(r cResult) {
		cr := toC(r)
		C.unpdf_call_free_result(C.uintptr_t(freeResult), &cr)
	}
}

func callPath(fn uintptr, path string) cResult {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var out C.unpdf_result
	C.unpdf_call_path(C.uintptr_t(fn), cpath, &out)
	return fromC(out)
}

func callPathFlag(fn uintptr, path string, flag bool) cResult {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var f C.int
	if flag {
		f = 1
	}
	var out C.unpdf_result
	C.unpdf_call_path_flag(C.uintptr_t(fn), cpath, f, &out)
	return fromC(out)
}

func fromC(r C.unpdf_result) cResult {
	return cResult{
		Success: r.success != 0,
		Data:    uintptr(unsafe.Pointer(r.data)),
		Error:   uintptr(unsafe.Pointer(r.error_msg)),
	}
}

func toC(r cResult) C.unpdf_result {
	var cr C.unpdf_result
	if r.Success {
		cr.success = 1
	}
	cr.data = (*C.char)(pointer(unpdf.Ptr(r.Data)))
	cr.error_msg = (*C.char)(pointer(unpdf.Ptr(r.Error)))
	return cr
}
