package engine

import "github.com/iyulab/unpdf"

const (
	// UnpdfAlloc is the engine's own allocator export: alloc(len) -> ptr.
	UnpdfAlloc  = "unpdf_alloc"
	CabiRealloc = "cabi_realloc"

	// Generic names exported by most wasm32 toolchains
	simpleAlloc = "alloc"
	libcMalloc  = "malloc"

	memoryExport = "memory"
)

// allocatorExports lists allocator exports in preference order.
var allocatorExports = []string{UnpdfAlloc, CabiRealloc, simpleAlloc, libcMalloc}

// Result struct layout under the wasm32 C ABI: a one-byte bool followed by
// two 4-byte pointers. Calls returning it take a hidden result pointer as
// their first parameter, and unpdf_free_result takes a pointer to a copy.
const (
	envelopeSize        = 12
	envelopeSuccessOff  = 0
	envelopeDataOff     = 4
	envelopeErrorOff    = 8
	scratchOutLenOffset = envelopeSize
	scratchSize         = envelopeSize + 4
)

type signature struct {
	params  int
	results int
}

// signatures is the expected core signature of each entry point. All
// parameters and results are i32.
var signatures = map[string]signature{
	unpdf.SymVersion:            {0, 1},
	unpdf.SymLastError:          {0, 1},
	unpdf.SymToMarkdown:         {2, 0},
	unpdf.SymToText:             {2, 0},
	unpdf.SymToJSON:             {3, 0},
	unpdf.SymGetInfo:            {2, 0},
	unpdf.SymGetPageCount:       {1, 1},
	unpdf.SymIsPDF:              {1, 1},
	unpdf.SymFreeResult:         {1, 0},
	unpdf.SymParseFile:          {1, 1},
	unpdf.SymParseBytes:         {2, 1},
	unpdf.SymFreeDocument:       {1, 0},
	unpdf.SymDocumentToMarkdown: {2, 1},
	unpdf.SymDocumentToText:     {1, 1},
	unpdf.SymDocumentToJSON:     {2, 1},
	unpdf.SymPlainText:          {1, 1},
	unpdf.SymSectionCount:       {1, 1},
	unpdf.SymResourceCount:      {1, 1},
	unpdf.SymGetTitle:           {1, 1},
	unpdf.SymGetAuthor:          {1, 1},
	unpdf.SymResourceIDs:        {1, 1},
	unpdf.SymResourceInfo:       {2, 1},
	unpdf.SymResourceData:       {3, 1},
	unpdf.SymFreeString:         {1, 0},
	unpdf.SymFreeBytes:          {2, 0},
}
