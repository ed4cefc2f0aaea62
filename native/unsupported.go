//go:build !(darwin || freebsd || linux || netbsd || windows)

package native

import (
	"runtime"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// OpenLibrary always fails on platforms without dynamic loading support.
func OpenLibrary(path string) (unpdf.Library, error) {
	return nil, errors.Unsupported(errors.PhaseLoad, "native libraries are not supported on "+runtime.GOOS+"/"+runtime.GOARCH)
}
