package docquiz

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
)

func TestTextExtractor(t *testing.T) {
	data := []byte("Inhalt\n1 Einleitung .... 3\n\n\nAbsatz eins\r\nzweite Zeile   \r\n")
	blocks, err := (&TextExtractor{}).Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []string{"Inhalt\n1 Einleitung .... 3", "Absatz eins\nzweite Zeile"}
	if !slices.Equal(blocks, want) {
		t.Errorf("Extract() = %q, want %q", blocks, want)
	}
}

func TestHTMLExtractor(t *testing.T) {
	page := `<html><head><title>Handbuch</title><style>p { color: red }</style></head>
<body><div>
<h1>Inhalt</h1>
<ul><li>1 Einleitung ..... 3</li><li><p>2 Methodik ..... 8</p></li></ul>
<p>Ein <b>Absatz</b>
mit Text.</p>
</div><script>var x = 1;</script></body></html>`

	blocks, err := (&HTMLExtractor{}).Extract(context.Background(), []byte(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []string{"Inhalt", "1 Einleitung ..... 3", "2 Methodik ..... 8", "Ein Absatz mit Text."}
	if !slices.Equal(blocks, want) {
		t.Errorf("Extract() = %q, want %q", blocks, want)
	}
}

func TestHTMLBlocks(t *testing.T) {
	page := `<html><head><title>T</title></head><body><h1>Kapitel 1</h1><p>Text <i>kursiv</i></p>` +
		`<table><tr><td>A</td><td>B</td></tr></table><script>x()</script></body></html>`
	want := []string{"Kapitel 1", "Text kursiv", "A B"}
	if got := htmlBlocks([]byte(page)); !slices.Equal(got, want) {
		t.Errorf("htmlBlocks() = %q, want %q", got, want)
	}
}

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXExtractor(t *testing.T) {
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>1 Einleitung</w:t></w:r><w:r><w:tab/><w:t>3</w:t></w:r></w:p>
<w:p><w:r><w:fldChar w:fldCharType="begin"/></w:r><w:r><w:instrText xml:space="preserve"> TOC \o "1-3" </w:instrText></w:r><w:r><w:t>Abbildung 1: Aufbau</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">Zeile eins</w:t><w:br/><w:t>Zeile zwei</w:t></w:r></w:p>
</w:body></w:document>`

	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})
	blocks, err := (&DOCXExtractor{}).Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []string{"1 Einleitung\t3", "Abbildung 1: Aufbau", "Zeile eins Zeile zwei"}
	if !slices.Equal(blocks, want) {
		t.Errorf("Extract() = %q, want %q", blocks, want)
	}

	t.Run("no document part", func(t *testing.T) {
		data := buildDOCX(t, map[string]string{"word/styles.xml": "<styles/>"})
		if _, err := (&DOCXExtractor{}).Extract(context.Background(), data); err == nil {
			t.Error("Extract() should fail without word/document.xml")
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		if _, err := (&DOCXExtractor{}).Extract(context.Background(), []byte("plain text")); err == nil {
			t.Error("Extract() should fail on non-zip input")
		}
	})
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte(`BT
/F1 12 Tf
72 700 Td
(Inhalt) Tj
0 -14 Td
(1 Einleitung \(Teil 1\)) Tj
20 0 Td
[(.....)] TJ
ET
BT
72 600 Td
(\101bbildung 1: Aufbau) Tj
ET`)
	got := textFromContentStream(stream)
	want := "Inhalt\n1 Einleitung (Teil 1) .....\nAbbildung 1: Aufbau"
	if got != want {
		t.Errorf("textFromContentStream() = %q, want %q", got, want)
	}
}

func TestSplitFormFeeds(t *testing.T) {
	got := splitFormFeeds("Seite 1\fSeite 2\f\f")
	want := []string{"Seite 1", "Seite 2", ""}
	if !slices.Equal(got, want) {
		t.Errorf("splitFormFeeds() = %q, want %q", got, want)
	}
}

func TestExtractDocument(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FlowLinesPerPage = 2
	data := []byte("Inhalt\n1 Einleitung .... 3\n2 Methodik .... 8\n\n" +
		"Die FMEA ist eine Methode zur präventiven Fehlervermeidung in der Entwicklung.\n\nKurz.\n")

	doc, err := ExtractDocument(context.Background(), data, FormatText, cfg)
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	if doc.Paginated {
		t.Error("text documents are flowed")
	}
	if len(doc.Pages) != 3 {
		t.Errorf("got %d synthetic pages, want 3", len(doc.Pages))
	}
	if len(doc.Paragraphs) != 2 {
		t.Errorf("paragraphs = %q, want the two long blocks", doc.Paragraphs)
	}

	if _, err := ExtractDocument(context.Background(), []byte(" \n\n \n"), FormatText, cfg); !errors.Is(err, ErrExtractionEmpty) {
		t.Errorf("ExtractDocument() on blank input error = %v, want ErrExtractionEmpty", err)
	}
	if _, err := ExtractDocument(context.Background(), data, Format("odt"), cfg); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ExtractDocument() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		file    string
		want    Format
		wantErr bool
	}{
		{"Bericht.PDF", FormatPDF, false},
		{"arbeit.docx", FormatDOCX, false},
		{"buch.epub", FormatEPUB, false},
		{"seite.htm", FormatHTML, false},
		{"notizen.md", FormatText, false},
		{"tabelle.odt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, %v; want %q, wantErr %v", tt.file, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestSplitPassage(t *testing.T) {
	got := SplitPassage("eins zwei drei vier fünf", 9)
	want := []string{"eins zwei", "drei vier", "fünf"}
	if !slices.Equal(got, want) {
		t.Errorf("SplitPassage() = %q, want %q", got, want)
	}
}
