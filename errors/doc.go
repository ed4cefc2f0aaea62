// Package errors provides structured error types for the unpdf bindings.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Failures reported by the engine carry its message verbatim in
// Detail together with the entry point name in Op.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseQuery, errors.KindNative).
//		Op("unpdf_document_title").
//		Detail("invalid handle").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Native(errors.PhaseParse, "unpdf_parse_file", msg)
//	err := errors.Disposed("ToMarkdown")
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match on Kind regardless of Phase:
//
//	if errors.Is(err, errors.ErrDisposed) { ... }
package errors
