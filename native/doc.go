// Package native binds the unpdf engine's shared library.
//
// Open loads the image with the platform's dynamic loader and binds every
// entry point listed in unpdf.Symbols; an image missing any of them is
// rejected. Scalar entry points are called through purego. The calls that
// pass the result struct by value use purego on darwin and small C
// trampolines elsewhere, so on linux, freebsd and netbsd the package
// needs cgo to accept a library. Engine pointers are plain process addresses, so Memory reads
// them directly. Temporary input buffers handed to the engine are pinned Go
// allocations that stay alive until freed.
//
// The engine keeps its last error per OS thread. Library.Do locks the
// calling goroutine to its thread so a failing call and the LastError query
// that follows it observe the same slot.
package native
