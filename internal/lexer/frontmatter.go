package lexer

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dotrain/internal/ir"
)

// Separator is the line that ends the front matter.
const Separator = "---"

// Split is a document divided at its front matter separator.
type Split struct {
	// FrontMatter is the raw text before the separator line.
	FrontMatter string
	// FrontMatterRange covers FrontMatter.
	FrontMatterRange ir.Offsets
	// HasFrontMatter is set when a separator line was found.
	HasFrontMatter bool
	// Body is the text after the separator line.
	Body string
	// BodyOffset is where Body starts in the document.
	BodyOffset int
}

// SplitFrontMatter divides text at the first line consisting of exactly
// "---" (a trailing "\r" is tolerated). Without a separator the whole text
// is body.
func SplitFrontMatter(text string) Split {
	start := 0
	for start <= len(text) {
		end := strings.IndexByte(text[start:], '\n')
		lineEnd := len(text)
		next := len(text)
		if end >= 0 {
			lineEnd = start + end
			next = lineEnd + 1
		}
		if strings.TrimSuffix(text[start:lineEnd], "\r") == Separator {
			return Split{
				FrontMatter:      text[:start],
				FrontMatterRange: ir.Offsets{0, start},
				HasFrontMatter:   true,
				Body:             text[next:],
				BodyOffset:       next,
			}
		}
		if end < 0 {
			break
		}
		start = next
	}
	return Split{Body: text}
}

// ParseFrontMatter decodes YAML front matter. Blank input yields nil.
func ParseFrontMatter(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
