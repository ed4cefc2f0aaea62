package unpdf

import "testing"

func TestSplitFrontmatter(t *testing.T) {
	md := "---\n" +
		"title: \"Annual \\\"Plan\\\"\"\n" +
		"author: \"Kim\"\n" +
		"created: 2024-01-02T03:04:05+00:00\n" +
		"pdf_version: \"1.7\"\n" +
		"pages: 3\n" +
		"---\n" +
		"\n# Heading\n\nBody text."

	fm, body, err := SplitFrontmatter(md)
	if err != nil {
		t.Fatalf("SplitFrontmatter failed: %v", err)
	}
	if fm == nil {
		t.Fatal("expected frontmatter")
	}
	if fm.Title != `Annual "Plan"` {
		t.Errorf("Title = %q", fm.Title)
	}
	if fm.Author != "Kim" || fm.PDFVersion != "1.7" || fm.Pages != 3 {
		t.Errorf("unexpected frontmatter: %+v", fm)
	}
	if fm.Created == nil || fm.Created.Year() != 2024 {
		t.Errorf("Created = %v", fm.Created)
	}
	if body != "# Heading\n\nBody text." {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_NoBlock(t *testing.T) {
	for _, md := range []string{"# Title\n\ntext", "", "---\nunterminated"} {
		fm, body, err := SplitFrontmatter(md)
		if err != nil {
			t.Fatalf("SplitFrontmatter(%q) failed: %v", md, err)
		}
		if fm != nil {
			t.Errorf("SplitFrontmatter(%q) returned frontmatter %+v", md, fm)
		}
		if body != md {
			t.Errorf("body = %q, want %q", body, md)
		}
	}
}

func TestSplitFrontmatter_BlockAtEnd(t *testing.T) {
	fm, body, err := SplitFrontmatter("---\npages: 1\n---")
	if err != nil {
		t.Fatalf("SplitFrontmatter failed: %v", err)
	}
	if fm == nil || fm.Pages != 1 {
		t.Fatalf("unexpected frontmatter: %+v", fm)
	}
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestSplitFrontmatter_InvalidYAML(t *testing.T) {
	if _, _, err := SplitFrontmatter("---\npages: [1\n---\nbody"); err == nil {
		t.Fatal("expected YAML error")
	}
}
