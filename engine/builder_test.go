package engine

import (
	"sort"

	"github.com/iyulab/unpdf"
)

// Minimal core-module encoder for test images. Every parameter and result
// is i32 and every function body is raw instruction bytes.

const (
	opUnreachable = 0x00
	opEnd         = 0x0b
	opLocalGet    = 0x20
	opI32Load     = 0x28
	opI32Load8U   = 0x2d
	opI32Store    = 0x36
	opI32Store8   = 0x3a
	opI32Const    = 0x41
	opI32Eq       = 0x46
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	valI32        = 0x7f
)

type testFunc struct {
	name    string
	params  int
	results int
	body    []byte
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func wasmName(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func section(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(body)))...)
	return append(out, body...)
}

func vec(items [][]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// i32const emits i32.const v.
func i32const(v int32) []byte {
	return append([]byte{opI32Const}, sleb(v)...)
}

func localGet(i uint32) []byte {
	return append([]byte{opLocalGet}, uleb(i)...)
}

func store32(offset uint32) []byte {
	return append([]byte{opI32Store, 0x02}, uleb(offset)...)
}

func load32(offset uint32) []byte {
	return append([]byte{opI32Load, 0x02}, uleb(offset)...)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildModule encodes a module with one page of memory exported as
// "memory", the given functions and active data segments.
func buildModule(funcs []testFunc, data map[uint32][]byte, exportMemory bool) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var types, indices, codes, exports [][]byte
	for i, f := range funcs {
		typ := []byte{0x60}
		typ = append(typ, uleb(uint32(f.params))...)
		for j := 0; j < f.params; j++ {
			typ = append(typ, valI32)
		}
		typ = append(typ, uleb(uint32(f.results))...)
		for j := 0; j < f.results; j++ {
			typ = append(typ, valI32)
		}
		types = append(types, typ)
		indices = append(indices, uleb(uint32(i)))

		body := append([]byte{0x00}, f.body...) // no locals
		body = append(body, opEnd)
		codes = append(codes, append(uleb(uint32(len(body))), body...))

		exports = append(exports, cat(wasmName(f.name), []byte{0x00}, uleb(uint32(i))))
	}
	if exportMemory {
		exports = append(exports, cat(wasmName("memory"), []byte{0x02, 0x00}))
	}

	if len(funcs) > 0 {
		out = append(out, section(1, vec(types))...)
		out = append(out, section(3, vec(indices))...)
	}
	out = append(out, section(5, vec([][]byte{{0x00, 0x01}}))...)
	if len(exports) > 0 {
		out = append(out, section(7, vec(exports))...)
	}
	if len(funcs) > 0 {
		out = append(out, section(10, vec(codes))...)
	}

	if len(data) > 0 {
		offsets := make([]uint32, 0, len(data))
		for off := range data {
			offsets = append(offsets, off)
		}
		sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

		var segs [][]byte
		for _, off := range offsets {
			seg := cat([]byte{0x00}, i32const(int32(off)), []byte{opEnd}, uleb(uint32(len(data[off]))), data[off])
			segs = append(segs, seg)
		}
		out = append(out, section(11, vec(segs))...)
	}
	return out
}

// Fixed addresses inside the stub image.
const (
	addrHeap        = 0    // bump pointer
	addrFreeString  = 8    // unpdf_free_string call count
	addrFreeBytes   = 12   // unpdf_free_bytes call count
	addrFreeResult  = 16   // unpdf_free_result call count
	addrFreeDoc     = 20   // unpdf_free_document call count
	addrVersion     = 1024 // "1.2.3"
	addrError       = 1040 // "boom"
	addrMarkdown    = 1056 // "# Title"
	addrInfo        = 1100 // info JSON
	addrIDs         = 1120 // "[]"
	heapStart       = 4096
	stubHandle      = 77
	stubPageCount   = 7
	stubResourceLen = 3
)

// counter increments the i32 at addr.
func counter(addr int32) []byte {
	return cat(i32const(addr), i32const(addr), load32(0), i32const(1), []byte{opI32Add}, store32(0))
}

// writeEnvelope stores {success, data, error} at the result pointer in
// local 0.
func writeEnvelope(success bool, data, errPtr int32) []byte {
	s := int32(0)
	if success {
		s = 1
	}
	return cat(
		localGet(0), i32const(s), []byte{opI32Store8, 0x00, 0x00},
		localGet(0), i32const(data), store32(4),
		localGet(0), i32const(errPtr), store32(8),
	)
}

func ret(v int32) []byte { return i32const(v) }

// stubFuncs implements every entry point with canned behavior. Strings are
// static data; frees only bump counters.
func stubFuncs() []testFunc {
	return []testFunc{
		{UnpdfAlloc, 1, 1, cat(
			i32const(addrHeap), i32const(addrHeap), load32(0), localGet(0), []byte{opI32Add}, store32(0),
			i32const(addrHeap), load32(0), localGet(0), []byte{opI32Sub},
		)},
		{unpdf.SymVersion, 0, 1, ret(addrVersion)},
		{unpdf.SymLastError, 0, 1, ret(addrError)},
		{unpdf.SymToMarkdown, 2, 0, writeEnvelope(true, addrMarkdown, 0)},
		{unpdf.SymToText, 2, 0, writeEnvelope(false, 0, addrError)},
		{unpdf.SymToJSON, 3, 0, writeEnvelope(true, addrMarkdown, 0)},
		{unpdf.SymGetInfo, 2, 0, writeEnvelope(true, addrInfo, 0)},
		{unpdf.SymGetPageCount, 1, 1, ret(stubPageCount)},
		// true when the path starts with '/'
		{unpdf.SymIsPDF, 1, 1, cat(localGet(0), []byte{opI32Load8U, 0x00, 0x00}, i32const('/'), []byte{opI32Eq})},
		{unpdf.SymFreeResult, 1, 0, counter(addrFreeResult)},
		{unpdf.SymParseFile, 1, 1, ret(stubHandle)},
		// returns the first input byte as the handle
		{unpdf.SymParseBytes, 2, 1, cat(localGet(0), []byte{opI32Load8U, 0x00, 0x00})},
		{unpdf.SymFreeDocument, 1, 0, counter(addrFreeDoc)},
		{unpdf.SymDocumentToMarkdown, 2, 1, ret(addrMarkdown)},
		{unpdf.SymDocumentToText, 1, 1, ret(addrMarkdown)},
		{unpdf.SymDocumentToJSON, 2, 1, ret(addrMarkdown)},
		{unpdf.SymPlainText, 1, 1, []byte{opUnreachable}},
		{unpdf.SymSectionCount, 1, 1, localGet(0)},
		{unpdf.SymResourceCount, 1, 1, ret(0)},
		{unpdf.SymGetTitle, 1, 1, ret(addrMarkdown)},
		{unpdf.SymGetAuthor, 1, 1, ret(0)},
		{unpdf.SymResourceIDs, 1, 1, ret(addrIDs)},
		{unpdf.SymResourceInfo, 2, 1, ret(0)},
		{unpdf.SymResourceData, 3, 1, cat(localGet(2), i32const(stubResourceLen), store32(0), ret(addrMarkdown))},
		{unpdf.SymFreeString, 1, 0, counter(addrFreeString)},
		{unpdf.SymFreeBytes, 2, 0, counter(addrFreeBytes)},
	}
}

func stubData() map[uint32][]byte {
	return map[uint32][]byte{
		addrHeap:     {0x00, 0x10, 0x00, 0x00},
		addrVersion:  []byte("1.2.3\x00"),
		addrError:    []byte("boom\x00"),
		addrMarkdown: []byte("# Title\x00"),
		addrInfo:     []byte(`{"page_count":2}` + "\x00"),
		addrIDs:      []byte("[]\x00"),
	}
}

func stubModule() []byte {
	return buildModule(stubFuncs(), stubData(), true)
}
