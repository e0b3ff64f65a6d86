package docquiz

import (
	"errors"
	"testing"
)

func TestParseElementLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   ElementEntry
		wantOK bool
	}{
		{
			name:   "german figure with colon",
			line:   "Abbildung 3.2: Aufbau der Anlage",
			want:   ElementEntry{Type: ElementFigure, Label: "3.2", Title: "Aufbau der Anlage"},
			wantOK: true,
		},
		{
			name:   "table list entry keeps listed page",
			line:   "Tabelle 4 – Messwerte ........ 27",
			want:   ElementEntry{Type: ElementTable, Label: "4", Title: "Messwerte", Page: 27},
			wantOK: true,
		},
		{
			name:   "annex letter",
			line:   "Anhang B: Prüfprotokoll",
			want:   ElementEntry{Type: ElementAnnex, Label: "B", Title: "Prüfprotokoll"},
			wantOK: true,
		},
		{
			name:   "lowercase annex label is uppercased",
			line:   "Appendix c - Glossary of terms",
			want:   ElementEntry{Type: ElementAnnex, Label: "C", Title: "Glossary of terms"},
			wantOK: true,
		},
		{
			name:   "abbreviation",
			line:   "Abb. 5 Schaltplan",
			want:   ElementEntry{Type: ElementFigure, Label: "5", Title: "Schaltplan"},
			wantOK: true,
		},
		{
			name:   "english table with dashed label",
			line:   "Table 2-1. Failure modes",
			want:   ElementEntry{Type: ElementTable, Label: "2-1", Title: "Failure modes"},
			wantOK: true,
		},
		{
			name:   "stray letter before figure number",
			line:   "Abbildung S12: Lageplan",
			want:   ElementEntry{Type: ElementFigure, Label: "12", Title: "Lageplan"},
			wantOK: true,
		},
		{
			name:   "missing label",
			line:   "Tabelle: Übersicht der Kennzahlen",
			want:   ElementEntry{Type: ElementTable, Label: UnresolvedLabel, Title: "Übersicht der Kennzahlen"},
			wantOK: true,
		},
		{
			name:   "annex-scoped table label",
			line:   "Table A.1: Raw measurement data",
			want:   ElementEntry{Type: ElementTable, Label: "A.1", Title: "Raw measurement data"},
			wantOK: true,
		},
		{
			name:   "annex-scoped german table label with dash",
			line:   "Tabelle B.2 – Messwerte der Serie",
			want:   ElementEntry{Type: ElementTable, Label: "B.2", Title: "Messwerte der Serie"},
			wantOK: true,
		},
		{name: "toc heading", line: "Table of Contents", wantOK: false},
		{name: "list of figures heading", line: "Table of Figures ........ iv", wantOK: false},
		{name: "plural is not a keyword", line: "Figures and tables are listed below", wantOK: false},
		{name: "list heading", line: "Abbildungsverzeichnis", wantOK: false},
		{name: "title without letters", line: "Abbildung 1: 12.5 %", wantOK: false},
		{name: "prose", line: "Die Anlage wird in Kapitel 3 beschrieben.", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseElementLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseElementLine(%q) ok = %v, want %v (got %+v)", tt.line, ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Errorf("parseElementLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestBuildCatalogPaginated(t *testing.T) {
	doc := &Document{Paginated: true, Pages: []string{
		"Abbildungsverzeichnis\nAbbildung 1: Prozessablauf ........ 4",
		"Einleitung",
		"Text\nAbbildung 2: Systemgrenze\nTabelle 1: Risikoprioritätszahlen",
		"Mehr Text\nAbbildung 2: Systemgrenze",
		"Anhang A: Formblätter",
	}}

	elements, err := BuildCatalog(doc, 1)
	if err != nil {
		t.Fatalf("BuildCatalog() error = %v", err)
	}
	want := []ElementEntry{
		{Type: ElementFigure, Label: "1", Title: "Prozessablauf", Page: 4},
		{Type: ElementFigure, Label: "2", Title: "Systemgrenze", Page: 2},
		{Type: ElementTable, Label: "1", Title: "Risikoprioritätszahlen", Page: 2},
		{Type: ElementAnnex, Label: "A", Title: "Formblätter", Page: 4},
	}
	if len(elements) != len(want) {
		t.Fatalf("got %d elements %+v, want %d", len(elements), elements, len(want))
	}
	for i := range want {
		if elements[i] != want[i] {
			t.Errorf("element %d = %+v, want %+v", i, elements[i], want[i])
		}
	}
}

func TestBuildCatalogFlowed(t *testing.T) {
	doc := &Document{Pages: []string{"Abbildung 1: Aufbau\nTabelle 2: Kennwerte ..... 12"}}
	elements, err := BuildCatalog(doc, 0)
	if err != nil {
		t.Fatalf("BuildCatalog() error = %v", err)
	}
	for _, e := range elements {
		switch e.Type {
		case ElementFigure:
			if e.Page != 0 {
				t.Errorf("flowed figure page = %d, want 0", e.Page)
			}
		case ElementTable:
			if e.Page != 12 {
				t.Errorf("listed table page = %d, want 12", e.Page)
			}
		}
	}
}

func TestBuildCatalogEmpty(t *testing.T) {
	doc := &Document{Paginated: true, Pages: []string{"Nur Fließtext ohne Abbildungen."}}
	elements, err := BuildCatalog(doc, 0)
	if !errors.Is(err, ErrElementCatalogEmpty) {
		t.Errorf("BuildCatalog() error = %v, want ErrElementCatalogEmpty", err)
	}
	if len(elements) != 0 {
		t.Errorf("got %d elements, want none", len(elements))
	}
}

func TestSortElements(t *testing.T) {
	elements := []ElementEntry{
		{Type: ElementAnnex, Label: "B"},
		{Type: ElementFigure, Label: UnresolvedLabel, Page: 1},
		{Type: ElementFigure, Label: "10"},
		{Type: ElementTable, Label: "3.10"},
		{Type: ElementFigure, Label: "2"},
		{Type: ElementTable, Label: "3.2"},
		{Type: ElementAnnex, Label: "A"},
	}
	SortElements(elements)

	var got []string
	for _, e := range elements {
		got = append(got, string(e.Type)+" "+e.Label)
	}
	want := []string{"Figure 2", "Figure 10", "Figure ?", "Table 3.2", "Table 3.10", "Annex A", "Annex B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortElements() = %v, want %v", got, want)
		}
	}
}

func TestElementsOfTypeSkipsUnresolved(t *testing.T) {
	elements := []ElementEntry{
		{Type: ElementFigure, Label: "1", Title: "Aufbau"},
		{Type: ElementFigure, Label: UnresolvedLabel, Title: "Ohne Nummer"},
		{Type: ElementTable, Label: "1", Title: "Werte"},
	}
	got := ElementsOfType(elements, ElementFigure)
	if len(got) != 1 || got[0].Label != "1" {
		t.Errorf("ElementsOfType() = %+v, want only Figure 1", got)
	}
}

func TestCompareLabels(t *testing.T) {
	if CompareLabels("3-10", "3.2") <= 0 {
		t.Error(`"3-10" should sort after "3.2"`)
	}
	if CompareLabels("A", "B") >= 0 {
		t.Error(`"A" should sort before "B"`)
	}
	if CompareLabels("2", "A") >= 0 {
		t.Error("numeric labels should sort before letters")
	}
}
