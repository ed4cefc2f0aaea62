package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iyulab/unpdf"
)

func TestExportResource(t *testing.T) {
	dir := t.TempDir()
	r := &unpdf.ResourceInfo{ID: "img1", MimeType: "image/png"}

	first, err := exportResource(dir, r, []byte("one"))
	if err != nil {
		t.Fatalf("exportResource failed: %v", err)
	}
	if first != filepath.Join(dir, "img1.png") {
		t.Errorf("first export = %q", first)
	}

	second, err := exportResource(dir, r, []byte("two"))
	if err != nil {
		t.Fatalf("second exportResource failed: %v", err)
	}
	if second != filepath.Join(dir, "img1-1.png") {
		t.Errorf("second export = %q, want a fresh name", second)
	}

	data, err := os.ReadFile(first)
	if err != nil || string(data) != "one" {
		t.Errorf("first file = %q, %v; must not be overwritten", data, err)
	}
}

func TestExportResource_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	r := &unpdf.ResourceInfo{ID: "att", Filename: "../../etc/report.txt"}

	path, err := exportResource(dir, r, []byte("x"))
	if err != nil {
		t.Fatalf("exportResource failed: %v", err)
	}
	if path != filepath.Join(dir, "report.txt") {
		t.Errorf("export = %q, want inside %s", path, dir)
	}

	r.Filename = ".."
	path, err = exportResource(dir, r, []byte("x"))
	if err != nil {
		t.Fatalf("exportResource failed: %v", err)
	}
	if path != filepath.Join(dir, "att.bin") {
		t.Errorf("export = %q, want fallback name", path)
	}
}

func TestFormatInfo(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	out := formatInfo("a.pdf", &unpdf.DocumentInfo{
		Title:     "Report",
		PageCount: 4,
		Created:   &created,
		Encrypted: true,
	})

	for _, want := range []string{"File:        a.pdf", "Title:       Report", "Pages:       4", "Created:     2024-03-01 09:30:00", "Encrypted:   yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatInfo output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Author") {
		t.Errorf("empty fields should be omitted:\n%s", out)
	}
}

func TestFormatResource(t *testing.T) {
	w, h := uint32(640), uint32(480)
	line := formatResource(&unpdf.ResourceInfo{ID: "img1", MimeType: "image/png", Size: 2048, Width: &w, Height: &h})
	if !strings.HasSuffix(line, "2048 bytes  640x480") {
		t.Errorf("formatResource = %q", line)
	}
}

func TestExtractFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want extractOptions
		file string
	}{
		{"defaults", []string{"a.pdf"}, extractOptions{out: "."}, "a.pdf"},
		{"out and id", []string{"-out", "assets", "-id", "img1", "b.pdf"}, extractOptions{out: "assets", only: "img1"}, "b.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o extractOptions
			file, err := parseFile(extractFlags(&o), tt.args)
			if err != nil {
				t.Fatalf("parseFile failed: %v", err)
			}
			if o != tt.want || file != tt.file {
				t.Errorf("got %+v %q, want %+v %q", o, file, tt.want, tt.file)
			}
		})
	}

	if !strings.Contains(usage, "-out") {
		t.Error("usage text does not document -out")
	}
}
