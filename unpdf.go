package unpdf

// Ptr is an address in the engine's address space. Zero is the null pointer.
type Ptr uintptr

// Handle is an opaque reference to a parsed document held by the engine.
// Zero means the engine failed to produce a document.
type Handle uintptr

// Envelope mirrors the engine's result structure returned by the stateless
// path-based calls. Data is set on success, Error on failure; both are owned
// by the engine and released together by Library.FreeResult.
type Envelope struct {
	Success bool
	Data    Ptr
	Error   Ptr
}

// Memory gives access to engine-owned memory.
type Memory interface {
	// Read copies length bytes starting at p into Go memory.
	Read(p Ptr, length int) ([]byte, error)
	// ReadCString copies the NUL-terminated string at p into Go memory.
	ReadCString(p Ptr) (string, error)
	Write(p Ptr, data []byte) error
}

// Allocator allocates engine-addressable memory for temporary inputs.
type Allocator interface {
	Alloc(size int) (Ptr, error)
	Free(p Ptr, size int)
}

// Library is the raw call surface of an unpdf engine image. Every method maps
// to exactly one exported entry point (see symbols.go). Methods returning Ptr
// hand ownership of the pointed-to memory to the caller unless documented
// otherwise; the caller copies it and releases it with the matching Free call.
//
// A Library is not safe for concurrent use on its own: callers run each
// fallible call together with its LastError query inside Do.
type Library interface {
	Memory
	Allocator

	// Do runs fn with exclusive use of the execution context the engine's
	// last-error slot is bound to.
	Do(fn func())

	// Version returns a static string. It must not be freed.
	Version() Ptr
	// LastError describes the most recent failure on the current execution
	// context. The string stays owned by the engine.
	LastError() Ptr

	ToMarkdown(path string) Envelope
	ToText(path string) Envelope
	ToJSON(path string, pretty bool) Envelope
	GetInfo(path string) Envelope
	GetPageCount(path string) int32
	IsPDF(path string) bool
	FreeResult(env Envelope)

	ParseFile(path string) Handle
	ParseBytes(data Ptr, length int) Handle
	FreeDocument(h Handle)

	DocumentToMarkdown(h Handle, flags Flags) Ptr
	DocumentToText(h Handle) Ptr
	DocumentToJSON(h Handle, format JSONFormat) Ptr
	PlainText(h Handle) Ptr
	SectionCount(h Handle) int32
	ResourceCount(h Handle) int32
	Title(h Handle) Ptr
	Author(h Handle) Ptr
	ResourceIDs(h Handle) Ptr
	ResourceInfo(h Handle, id string) Ptr
	ResourceData(h Handle, id string) (Ptr, int)

	FreeString(p Ptr)
	FreeBytes(p Ptr, length int)

	Close() error
}

// Faulter is implemented by backends whose calls can fail outside the
// engine's own error channel, such as a trapped WASM instance. Fault returns
// and clears the pending fault.
type Faulter interface {
	Fault() error
}
