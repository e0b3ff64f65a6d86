package docquiz

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DOCXExtractor implements Extractor for Word documents. Each w:p element becomes one block.
type DOCXExtractor struct{}

func init() {
	Register(&DOCXExtractor{})
}

func (e *DOCXExtractor) Format() Format       { return FormatDOCX }
func (e *DOCXExtractor) Extensions() []string { return []string{".docx"} }
func (e *DOCXExtractor) Paginated() bool      { return false }

func (e *DOCXExtractor) Extract(_ context.Context, data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open word/document.xml: %w", err)
		}
		defer rc.Close()
		return docxParagraphs(rc)
	}
	return nil, errors.New("word/document.xml not found")
}

// docxParagraphs streams document.xml and collects the run text of every paragraph.
// Field instructions (w:instrText) are skipped so TOC fields show their cached result only.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte(' ')
			case "p":
				cur.Reset()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					paras = append(paras, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
