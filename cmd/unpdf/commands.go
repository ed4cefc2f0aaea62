package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/runtime"
)

type command func(rt *runtime.Runtime, args []string) error

var commands = map[string]command{
	"markdown":  markdownCmd,
	"text":      textCmd,
	"json":      jsonCmd,
	"info":      infoCmd,
	"resources": resourcesCmd,
	"extract":   extractCmd,
	"browse":    browseCmd,
	"version":   versionCmd,
}

// parseFile parses command flags and returns the single PDF argument.
func parseFile(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one PDF file, got %d arguments", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

func markdownCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("markdown", flag.ContinueOnError)
	var opts unpdf.MarkdownOptions
	fs.BoolVar(&opts.IncludeFrontmatter, "frontmatter", false, "Prepend YAML frontmatter")
	fs.BoolVar(&opts.EscapeSpecialChars, "escape", false, "Escape Markdown special characters")
	fs.BoolVar(&opts.ParagraphSpacing, "spacing", false, "Blank line between paragraphs")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	// the stateless call covers the default rendering
	if opts == (unpdf.MarkdownOptions{}) {
		md, err := rt.ToMarkdown(path)
		if err != nil {
			return err
		}
		fmt.Println(md)
		return nil
	}

	doc, err := rt.ParseFile(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	md, err := doc.ToMarkdown(opts)
	if err != nil {
		return err
	}
	fmt.Println(md)
	return nil
}

func textCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("text", flag.ContinueOnError)
	plain := fs.Bool("plain", false, "Drop layout, output bare text")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	if !*plain {
		text, err := rt.ToText(path)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	doc, err := rt.ParseFile(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	text, err := doc.PlainText()
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func jsonCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	compact := fs.Bool("compact", false, "Compact output")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	out, err := rt.ToJSON(path, !*compact)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func infoCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	raw := fs.Bool("json", false, "Print the engine's info JSON")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	if *raw {
		out, err := rt.GetInfoJSON(path)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	info, err := rt.GetInfo(path)
	if err != nil {
		return err
	}
	fmt.Print(formatInfo(path, info))
	return nil
}

func formatInfo(path string, info *unpdf.DocumentInfo) string {
	var b strings.Builder
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-12s %s\n", k+":", v)
		}
	}
	row("File", path)
	row("Title", info.Title)
	row("Author", info.Author)
	row("Subject", info.Subject)
	row("Keywords", info.Keywords)
	row("Creator", info.Creator)
	row("Producer", info.Producer)
	row("PDF version", info.PDFVersion)
	row("Pages", fmt.Sprint(info.PageCount))
	if info.Created != nil {
		row("Created", info.Created.Format("2006-01-02 15:04:05"))
	}
	if info.Modified != nil {
		row("Modified", info.Modified.Format("2006-01-02 15:04:05"))
	}
	if info.Encrypted {
		row("Encrypted", "yes")
	}
	return b.String()
}

func resourcesCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("resources", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print descriptors as JSON")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	doc, err := rt.ParseFile(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	resources, err := doc.Resources()
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resources)
	}
	for _, r := range resources {
		fmt.Println(formatResource(r))
	}
	return nil
}

func formatResource(r *unpdf.ResourceInfo) string {
	line := fmt.Sprintf("%-10s %-18s %8d bytes", r.ID, r.MimeType, r.Size)
	if r.Width != nil && r.Height != nil {
		line += fmt.Sprintf("  %dx%d", *r.Width, *r.Height)
	}
	return line
}

type extractOptions struct {
	out  string
	only string
}

func extractFlags(o *extractOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.StringVar(&o.out, "out", ".", "Output directory")
	fs.StringVar(&o.only, "id", "", "Extract a single resource")
	return fs
}

func extractCmd(rt *runtime.Runtime, args []string) error {
	var o extractOptions
	path, err := parseFile(extractFlags(&o), args)
	if err != nil {
		return err
	}

	doc, err := rt.ParseFile(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	resources, err := doc.Resources()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return err
	}

	n := 0
	for _, r := range resources {
		if o.only != "" && r.ID != o.only {
			continue
		}
		data, err := doc.ResourceData(r.ID)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		written, err := exportResource(o.out, r, data)
		if err != nil {
			return err
		}
		fmt.Println(written)
		n++
	}
	if o.only != "" && n == 0 {
		return fmt.Errorf("resource %q not found", o.only)
	}
	return nil
}

// exportResource writes data into dir under the resource's suggested file
// name. Directory components in the name are dropped and an existing file
// is never overwritten.
func exportResource(dir string, r *unpdf.ResourceInfo, data []byte) (string, error) {
	name := filepath.Base(filepath.Clean("/" + r.SuggestedFilename()))
	if name == "/" || name == "." {
		name = r.ID + "." + r.Extension()
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	target := filepath.Join(dir, name)
	for i := 1; ; i++ {
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			target = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return target, f.Close()
	}
}

func browseCmd(rt *runtime.Runtime, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}
	if !isTerminal() {
		return fmt.Errorf("browse needs an interactive terminal")
	}
	return runInteractive(rt, path)
}

func versionCmd(rt *runtime.Runtime, args []string) error {
	v, err := rt.Version()
	if err != nil {
		return err
	}
	fmt.Printf("unpdf %s (%s backend, %s)\n", v, rt.Backend(), rt.Path())
	return nil
}
