package loader

import "path/filepath"

// Library image file names.
const (
	NameWindowsNative = "unpdf_native.dll"
	NameWindows       = "unpdf.dll"
	NameDarwin        = "libunpdf.dylib"
	NameUnix          = "libunpdf.so"
	NameWASM          = "unpdf.wasm"
)

// Names returns the native library file names to try for goos, in order.
//
// A Go package named unpdf built as a c-shared library on Windows produces
// unpdf.dll itself, so the disambiguated unpdf_native.dll is tried first.
func Names(goos string) []string {
	switch goos {
	case "windows":
		return []string{NameWindowsNative, NameWindows}
	case "darwin", "ios":
		return []string{NameDarwin}
	default:
		return []string{NameUnix}
	}
}

// RuntimeID returns the name of the per-platform subdirectory native images
// are packaged under, e.g. "linux-x64" or "osx-arm64".
func RuntimeID(goos, goarch string, musl bool) string {
	var osPart string
	switch goos {
	case "windows":
		osPart = "win"
	case "darwin", "ios":
		osPart = "osx"
	case "linux":
		osPart = "linux"
		if musl {
			osPart = "linux-musl"
		}
	default:
		osPart = goos
	}

	var archPart string
	switch goarch {
	case "amd64":
		archPart = "x64"
	case "386":
		archPart = "x86"
	default:
		archPart = goarch
	}
	return osPart + "-" + archPart
}

// muslLoaderGlob matches the dynamic loader shipped by musl-based systems.
const muslLoaderGlob = "/lib/ld-musl-*"

// detectMusl reports whether the running Linux system uses musl libc.
var detectMusl = func() bool {
	matches, err := filepath.Glob(muslLoaderGlob)
	return err == nil && len(matches) > 0
}
