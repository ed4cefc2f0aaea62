// Package unpdf defines the call surface of the unpdf PDF extraction engine
// and the value types exchanged with it.
//
// The engine is a natively compiled library with a small C ABI. This
// package declares that ABI once: the exported entry point names (symbols.go),
// the raw Library interface every backend implements, the result Envelope,
// the Markdown flag set and the JSON shapes the engine emits.
//
// # Architecture Overview
//
//	unpdf/           Library interface, symbols, flags, metadata types
//	├── runtime/     High-level API: Runtime, Document, conversions
//	├── loader/      Platform library resolution
//	├── native/      Shared-library backend (purego, cgo for by-value structs)
//	├── engine/      WASM backend for unpdf.wasm images (wazero)
//	├── handle/      Live document table with lifecycle observers
//	├── metrics/     Prometheus collectors for owned payloads
//	├── config/      YAML and environment configuration
//	├── errors/      Structured errors with phase and kind
//	└── cmd/unpdf/   Command line front end
//
// # Ownership
//
// Every Ptr returned by a Library method that yields owned data must be
// copied into Go memory and released exactly once with the matching free
// call: FreeResult for envelopes, FreeString for strings, FreeBytes for
// byte buffers, FreeDocument for handles. Version and LastError are the
// exceptions; their strings stay owned by the engine. The runtime package
// implements this protocol; most programs never touch Library directly.
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	doc, err := rt.ParseFile("report.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	md, err := doc.ToMarkdown(unpdf.MarkdownOptions{IncludeFrontmatter: true})
package unpdf
