// Package loader locates and loads the unpdf engine library.
//
// The same logical library ships under a different file name per platform
// (see Names). A Resolver expands the configured search locations into an
// ordered list of candidates and returns the first one that opens:
//
//	r := loader.New(loader.Config{
//		OpenNative: native.OpenLibrary,
//		OpenWASM:   engine.OpenFile,
//		AllowWASM:  true,
//	})
//	lib, cand, err := r.Load()
//
// Search order: the explicit library path (or UNPDF_LIBRARY_PATH), the
// configured search directories, the executable's lib/<runtime-id>, lib and
// own directories, then the bare file name for the system loader. With
// AllowWASM, unpdf.wasm in the same directories comes last.
package loader
