package docquiz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlBlockSelector picks the elements that carry one line of readable text each.
const htmlBlockSelector = "h1, h2, h3, h4, h5, h6, p, li, dt, dd, caption, figcaption, th, td, pre, blockquote"

// HTMLExtractor implements Extractor for HTML pages.
type HTMLExtractor struct{}

func init() {
	Register(&HTMLExtractor{})
}

func (e *HTMLExtractor) Format() Format       { return FormatHTML }
func (e *HTMLExtractor) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }
func (e *HTMLExtractor) Paginated() bool      { return false }

func (e *HTMLExtractor) Extract(_ context.Context, data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find(htmlBlockSelector).Each(func(_ int, s *goquery.Selection) {
		// Containers are skipped; their block children are visited on their own.
		if s.Find(htmlBlockSelector).Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		if t := strings.TrimSpace(doc.Find("body").Text()); t != "" {
			blocks = append(blocks, t)
		}
	}
	return blocks, nil
}
