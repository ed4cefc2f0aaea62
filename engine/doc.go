// Package engine runs a WebAssembly build of the unpdf engine with wazero.
//
// The image is a core module compiled for wasm32 that exports the same C ABI
// as the native shared library, plus its linear memory and an allocator.
// Engine implements unpdf.Library on top of it, so callers cannot tell the
// two backends apart.
//
// # Calling Convention
//
// Pointers are 32-bit offsets into linear memory. Under the wasm32 C ABI:
//
//	C signature                                  core signature
//	──────────────────────────────────────────────────────────────────
//	UnpdfResult unpdf_to_markdown(const char*)   (retptr, path) -> ()
//	UnpdfResult unpdf_to_json(const char*, bool) (retptr, path, pretty) -> ()
//	void unpdf_free_result(UnpdfResult)          (ptr) -> ()
//	uint8_t* unpdf_get_resource_data(h, id, len*) (h, id, lenptr) -> ptr
//
// The result struct is 12 bytes: the success flag at offset 0, data at 4 and
// error at 8. Strings passed in are copied into guest memory obtained from
// the first allocator export found among unpdf_alloc, cabi_realloc, alloc
// and malloc, and released with unpdf_free_bytes after the call.
//
// # Faults
//
// A trap inside the guest does not reach the engine's own error slot. The
// engine records it instead and returns the call's failure sentinel; Fault
// reports it to the caller and clears it.
//
// # Concurrency
//
// One instance has one linear memory and one stack. Every call, including
// the memory reads that copy results out, must run inside Do.
package engine
