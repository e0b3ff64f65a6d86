package docquiz

import (
	"context"
	"strings"
)

// TextExtractor implements Extractor for plain text and Markdown. Blocks are separated
// by blank lines; line breaks inside a block are kept so TOC lines stay intact.
type TextExtractor struct{}

func init() {
	Register(&TextExtractor{})
}

func (e *TextExtractor) Format() Format       { return FormatText }
func (e *TextExtractor) Extensions() []string { return []string{".txt", ".md", ".markdown"} }
func (e *TextExtractor) Paginated() bool      { return false }

func (e *TextExtractor) Extract(_ context.Context, data []byte) ([]string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var blocks []string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimRight(line, " \t"))
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks, nil
}
