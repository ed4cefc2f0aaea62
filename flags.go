package unpdf

// Flags is the packed option set accepted by unpdf_document_to_markdown.
type Flags int32

const (
	FlagFrontmatter      Flags = 1 << 0
	FlagEscapeSpecial    Flags = 1 << 1
	FlagParagraphSpacing Flags = 1 << 2
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// JSONFormat selects the JSON layout for unpdf_document_to_json.
type JSONFormat int32

const (
	JSONPretty  JSONFormat = 0
	JSONCompact JSONFormat = 1
)

// JSONFormatFor maps the compact switch onto a format selector.
func JSONFormatFor(compact bool) JSONFormat {
	if compact {
		return JSONCompact
	}
	return JSONPretty
}

// MarkdownOptions controls Markdown rendering of a parsed document.
type MarkdownOptions struct {
	// IncludeFrontmatter prepends a YAML block with document metadata.
	IncludeFrontmatter bool
	// EscapeSpecialChars escapes characters that Markdown would interpret.
	EscapeSpecialChars bool
	// ParagraphSpacing separates paragraphs with a blank line.
	ParagraphSpacing bool
}

// Flags packs the options into the engine's flag set.
func (o MarkdownOptions) Flags() Flags {
	var f Flags
	if o.IncludeFrontmatter {
		f |= FlagFrontmatter
	}
	if o.EscapeSpecialChars {
		f |= FlagEscapeSpecial
	}
	if o.ParagraphSpacing {
		f |= FlagParagraphSpacing
	}
	return f
}

// DecodeFlags is the inverse of MarkdownOptions.Flags. Unknown bits are
// ignored.
func DecodeFlags(f Flags) MarkdownOptions {
	return MarkdownOptions{
		IncludeFrontmatter: f.Has(FlagFrontmatter),
		EscapeSpecialChars: f.Has(FlagEscapeSpecial),
		ParagraphSpacing:   f.Has(FlagParagraphSpacing),
	}
}
