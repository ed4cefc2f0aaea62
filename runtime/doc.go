// Package runtime is the Go API of the unpdf engine.
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	md, err := rt.ToMarkdown("report.pdf")
//
// # Documents
//
// ParseFile and ParseBytes return a Document that keeps the parsed PDF
// inside the engine, so it can be rendered and queried repeatedly:
//
//	doc, err := rt.ParseFile("report.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	md, err := doc.ToMarkdown(unpdf.MarkdownOptions{IncludeFrontmatter: true})
//	ids, err := doc.ResourceIDs()
//
// Every accessor of a closed Document fails with errors.ErrDisposed without
// calling the engine. Documents still open when the Runtime is closed are
// released by Close; unreachable documents are released by the garbage
// collector, which is logged as a warning.
//
// # Errors
//
// Failures reported by the engine match errors.ErrNative and carry the
// engine's message verbatim. Missing files passed to ParseFile match
// errors.ErrNotFound, malformed engine output matches errors.ErrDecode.
// GetPageCount and IsPDF report failure through their return values (-1 and
// false) instead.
//
// # Library Resolution
//
// New locates the engine through the loader package: an explicit path
// (WithLibraryPath, config library.path or UNPDF_LIBRARY_PATH), configured
// search paths, the executable's directory, then the system loader. With
// library.allow_wasm set, a portable unpdf.wasm image is the last resort.
package runtime
