package docquiz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBExtractor implements Extractor for EPUB files. It yields one block per
// paragraph-level element in spine order.
type EPUBExtractor struct{}

func init() {
	Register(&EPUBExtractor{})
}

func (e *EPUBExtractor) Format() Format       { return FormatEPUB }
func (e *EPUBExtractor) Extensions() []string { return []string{".epub"} }
func (e *EPUBExtractor) Paginated() bool      { return false }

func (e *EPUBExtractor) Extract(ctx context.Context, data []byte) ([]string, error) {
	rc, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	if len(rc.Rootfiles) == 0 {
		return nil, errors.New("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	var blocks []string
	for _, ref := range book.Spine.Itemrefs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}
		blocks = append(blocks, htmlBlocks(content)...)
	}
	return blocks, nil
}

// blockAtoms are the elements that end a text block.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Caption: true, atom.Figcaption: true, atom.Blockquote: true,
	atom.Pre: true, atom.Section: true, atom.Dt: true, atom.Dd: true,
}

// htmlBlocks walks an XHTML document and returns its text split at block elements.
// Script and style contents are skipped.
func htmlBlocks(content []byte) []string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	var blocks []string
	var cur strings.Builder
	flush := func() {
		if t := strings.Join(strings.Fields(cur.String()), " "); t != "" {
			blocks = append(blocks, t)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Head {
				return
			}
			if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
				cur.WriteByte(' ')
			}
		}
		block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()
	return blocks
}
