//go:build darwin

package native

import "github.com/iyulab/unpdf"

// bindEnvelopeCalls binds the calls that return or take the result struct
// by value. purego passes structs by value on darwin only.
func (l *Library) bindEnvelopeCalls(b *binder) {
	b.bind(unpdf.SymToMarkdown, &l.toMarkdown)
	b.bind(unpdf.SymToText, &l.toText)
	b.bind(unpdf.SymToJSON, &l.toJSON)
	b.bind(unpdf.SymGetInfo, &l.getInfo)
	b.bind(unpdf.SymFreeResult, &l.freeResult)
}
