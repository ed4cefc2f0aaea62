//go:build !cgo && (freebsd || linux || netbsd)

package native

import (
	"fmt"
	"runtime"

	"github.com/iyulab/unpdf"
)

// bindEnvelopeCalls rejects the library: the result struct is passed by
// value, which purego supports on darwin only, and the C trampolines need
// cgo. The loader then moves on to the next candidate.
func (l *Library) bindEnvelopeCalls(b *binder) {
	for _, name := range []string{
		unpdf.SymToMarkdown,
		unpdf.SymToText,
		unpdf.SymToJSON,
		unpdf.SymGetInfo,
		unpdf.SymFreeResult,
	} {
		if b.lookup(name) != 0 {
			b.errs = append(b.errs, fmt.Errorf("%s: result struct passed by value needs cgo on %s/%s",
				name, runtime.GOOS, runtime.GOARCH))
		}
	}
}
