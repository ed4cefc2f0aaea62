package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // library resolution and loading
	PhaseBind    Phase = "bind"    // symbol binding
	PhaseParse   Phase = "parse"   // document parsing
	PhaseConvert Phase = "convert" // stateless path-based conversion
	PhaseRender  Phase = "render"  // handle-based rendering
	PhaseQuery   Phase = "query"   // handle-based metadata and resources
	PhaseDecode  Phase = "decode"  // engine JSON to Go
	PhaseMemory  Phase = "memory"  // engine memory access
	PhaseRuntime Phase = "runtime" // runtime lifecycle
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindNative        Kind = "native"
	KindDisposed      Kind = "disposed"
	KindClosed        Kind = "closed"
	KindInvalidData   Kind = "invalid_data"
	KindInvalidInput  Kind = "invalid_input"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindAllocation    Kind = "allocation"
	KindNilPointer    Kind = "nil_pointer"
	KindMissingSymbol Kind = "missing_symbol"
	KindLoad          Kind = "load"
	KindTrap          Kind = "trap"
	KindUnsupported   Kind = "unsupported"
)

// Sentinels for errors.Is. They match on Kind alone.
var (
	ErrNotFound = &Error{Kind: KindNotFound}
	ErrNative   = &Error{Kind: KindNative}
	ErrDisposed = &Error{Kind: KindDisposed}
	ErrClosed   = &Error{Kind: KindClosed}
	ErrDecode   = &Error{Kind: KindInvalidData}
	ErrLoad     = &Error{Kind: KindLoad}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An empty Phase on the
// target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Message returns the detail text without the phase/kind prefix. For
// native failures this is the engine's message verbatim.
func (e *Error) Message() string {
	return e.Detail
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the operation or engine entry point
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// Native carries a failure reported by the engine. msg is kept verbatim.
func Native(phase Phase, op, msg string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNative,
		Op:     op,
		Detail: msg,
	}
}

// Disposed reports use of a document after it was closed
func Disposed(op string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindDisposed,
		Op:     op,
		Detail: "document already disposed",
	}
}

// Closed reports use of a runtime after Close
func Closed(op string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindClosed,
		Op:     op,
		Detail: "runtime closed",
	}
}

// Decode wraps a deserialization failure of engine output
func Decode(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidData,
		Op:     op,
		Detail: "malformed engine output",
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error for engine memory access
func OutOfBounds(phase Phase, ptr uint64, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access at 0x%x (length %d) out of bounds", ptr, length),
		Value:  ptr,
	}
}

// NilPointer reports a null pointer where the engine promised data
func NilPointer(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Op:     op,
		Detail: "null pointer",
	}
}

// Trap wraps a fault raised while executing engine code
func Trap(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Op:     op,
		Detail: "engine trapped",
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Load creates a library loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingSymbolsError is returned when a library image lacks entry points
type MissingSymbolsError struct {
	Library string
	Symbols []string
}

// NewMissingSymbolsError creates an error for the given library and symbols
func NewMissingSymbolsError(library string, symbols []string) *MissingSymbolsError {
	return &MissingSymbolsError{
		Library: library,
		Symbols: append([]string(nil), symbols...),
	}
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[bind] missing_symbol: no symbols specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is missing %d symbol(s):", e.Library, len(e.Symbols))
	for _, s := range e.Symbols {
		b.WriteString("\n  - ")
		b.WriteString(s)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingSymbolsError) Is(target error) bool {
	if _, ok := target.(*MissingSymbolsError); ok {
		return true
	}
	t, ok := target.(*Error)
	return ok && t.Kind == KindMissingSymbol && (t.Phase == "" || t.Phase == PhaseBind)
}
