package unpdf

import "testing"

func TestMarkdownOptions_FlagsRoundTrip(t *testing.T) {
	for i := 0; i < 8; i++ {
		opts := MarkdownOptions{
			IncludeFrontmatter: i&1 != 0,
			EscapeSpecialChars: i&2 != 0,
			ParagraphSpacing:   i&4 != 0,
		}

		flags := opts.Flags()
		if flags != Flags(i) {
			t.Errorf("%+v.Flags() = %d, want %d", opts, flags, i)
		}
		if got := DecodeFlags(flags); got != opts {
			t.Errorf("DecodeFlags(%d) = %+v, want %+v", flags, got, opts)
		}
	}
}

func TestFlags_Disjoint(t *testing.T) {
	all := []Flags{FlagFrontmatter, FlagEscapeSpecial, FlagParagraphSpacing}
	for i, a := range all {
		for j, b := range all {
			if i != j && a&b != 0 {
				t.Errorf("flags %d and %d overlap", a, b)
			}
		}
	}
	if FlagFrontmatter != 1 || FlagEscapeSpecial != 2 || FlagParagraphSpacing != 4 {
		t.Error("flag values changed; they are part of the engine ABI")
	}
}

func TestDecodeFlags_IgnoresUnknownBits(t *testing.T) {
	got := DecodeFlags(FlagEscapeSpecial | 1<<10)
	want := MarkdownOptions{EscapeSpecialChars: true}
	if got != want {
		t.Errorf("DecodeFlags = %+v, want %+v", got, want)
	}
}

func TestJSONFormatFor(t *testing.T) {
	if JSONFormatFor(false) != JSONPretty || JSONPretty != 0 {
		t.Errorf("pretty format = %d, want 0", JSONFormatFor(false))
	}
	if JSONFormatFor(true) != JSONCompact || JSONCompact != 1 {
		t.Errorf("compact format = %d, want 1", JSONFormatFor(true))
	}
}
