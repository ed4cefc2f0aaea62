package unpdf

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

// Frontmatter is the YAML metadata block the engine prepends to Markdown
// output when FlagFrontmatter is set.
type Frontmatter struct {
	Created    *time.Time `yaml:"created"`
	Modified   *time.Time `yaml:"modified"`
	Title      string     `yaml:"title"`
	Author     string     `yaml:"author"`
	Subject    string     `yaml:"subject"`
	Keywords   string     `yaml:"keywords"`
	Creator    string     `yaml:"creator"`
	Producer   string     `yaml:"producer"`
	PDFVersion string     `yaml:"pdf_version"`
	Pages      int        `yaml:"pages"`
}

// SplitFrontmatter separates a leading frontmatter block from the Markdown
// body. Without a block it returns (nil, markdown, nil).
func SplitFrontmatter(markdown string) (*Frontmatter, string, error) {
	if !strings.HasPrefix(markdown, frontmatterFence+"\n") {
		return nil, markdown, nil
	}
	rest := markdown[len(frontmatterFence)+1:]

	var block, body string
	switch {
	case strings.HasPrefix(rest, frontmatterFence+"\n"), rest == frontmatterFence:
		body = strings.TrimPrefix(rest, frontmatterFence)
	default:
		end := strings.Index(rest, "\n"+frontmatterFence+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontmatterFence) {
				return nil, markdown, nil
			}
			end = len(rest) - len(frontmatterFence) - 1
		}
		block = rest[:end]
		body = rest[end+1+len(frontmatterFence):]
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, markdown, err
	}
	return &fm, strings.TrimLeft(body, "\n"), nil
}
