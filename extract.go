package docquiz

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatEPUB Format = "epub"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// Extractor turns raw document bytes into text units.
//
// Paginated extractors return one unit per page. Flowed extractors return one unit per
// paragraph-level block; a block may span several lines.
type Extractor interface {
	Format() Format
	Extensions() []string
	Paginated() bool
	Extract(ctx context.Context, data []byte) ([]string, error)
}

var registry []Extractor

// Register adds an extractor to the registry.
func Register(e Extractor) {
	registry = append(registry, e)
}

// LookupExtractor returns the extractor registered for format.
func LookupExtractor(format Format) (Extractor, error) {
	for _, e := range registry {
		if e.Format() == format {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// DetectFormat maps a file name to a registered format by extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range registry {
		for _, x := range e.Extensions() {
			if ext == x {
				return e.Format(), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, e := range registry {
		out = append(out, string(e.Format())+" ("+strings.Join(e.Extensions(), ", ")+")")
	}
	return out
}

// Document is the extracted text of one upload.
type Document struct {
	Format    Format `json:"format"`
	Paginated bool   `json:"paginated"`
	// Pages holds physical pages for paginated formats and synthetic line windows
	// for flowed ones. Page i is physical page i+1.
	Pages []string `json:"pages"`
	// Paragraphs are the prose blocks offered to the content generator.
	Paragraphs []string `json:"paragraphs"`
}

// Text joins all pages.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// ExtractDocument runs the registered extractor for format over data.
func ExtractDocument(ctx context.Context, data []byte, format Format, cfg Config) (*Document, error) {
	ex, err := LookupExtractor(format)
	if err != nil {
		return nil, err
	}

	units, err := ex.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtractionEmpty, format, err)
	}

	nonEmpty := 0
	for _, u := range units {
		if strings.TrimSpace(u) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, ErrExtractionEmpty
	}

	doc := &Document{Format: format, Paginated: ex.Paginated()}
	if doc.Paginated {
		doc.Pages = units
		for _, page := range units {
			doc.Paragraphs = append(doc.Paragraphs, splitParagraphs(page, cfg.MinParagraphLength)...)
		}
	} else {
		doc.Pages = paginateBlocks(units, cfg.FlowLinesPerPage)
		for _, block := range units {
			p := strings.Join(strings.Fields(block), " ")
			if len(p) > cfg.MinParagraphLength {
				doc.Paragraphs = append(doc.Paragraphs, p)
			}
		}
	}

	traceStage("extract", "%s: %d units, %d pages, %d paragraphs", format, len(units), len(doc.Pages), len(doc.Paragraphs))
	return doc, nil
}

// paginateBlocks cuts flowed blocks into windows of linesPerPage lines.
func paginateBlocks(blocks []string, linesPerPage int) []string {
	if linesPerPage <= 0 {
		linesPerPage = 40
	}
	var lines []string
	for _, b := range blocks {
		for _, l := range strings.Split(b, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
	}
	var pages []string
	for start := 0; start < len(lines); start += linesPerPage {
		end := min(start+linesPerPage, len(lines))
		pages = append(pages, strings.Join(lines[start:end], "\n"))
	}
	return pages
}

// splitParagraphs splits page text on blank lines and joins wrapped lines.
func splitParagraphs(text string, minLength int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		p := strings.Join(strings.Fields(block), " ")
		if len(p) > minLength {
			out = append(out, p)
		}
	}
	return out
}

// SplitPassage cuts a paragraph into word-aligned passages of at most maxLength bytes.
func SplitPassage(paragraph string, maxLength int) []string {
	var parts []string
	current := ""
	for _, word := range strings.Fields(paragraph) {
		if len(current)+len(word)+1 <= maxLength {
			if current != "" {
				current += " "
			}
			current += word
		} else {
			if current != "" {
				parts = append(parts, current)
			}
			current = word
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}
