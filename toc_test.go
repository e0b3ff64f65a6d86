package docquiz

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

var sampleTOCLines = []string{
	"Inhaltsverzeichnis",
	"1 Einleitung .......... 3",
	"2 Methodik .......... 8",
	"2.1 FMEA .......... 9",
}

func TestCompareChapterNumbers(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"4.2", "4.10", -1},
		{"4.10", "4.2", 1},
		{"4", "4.1", -1},
		{"10", "9", 1},
		{"2.1", "2.1", 0},
		{"1.9.9", "2", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got := CompareChapterNumbers(tt.a, tt.b)
			if (got < 0) != (tt.want < 0) || (got > 0) != (tt.want > 0) {
				t.Errorf("CompareChapterNumbers(%q, %q) = %d, want sign of %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortChaptersMatchesDocumentOrder(t *testing.T) {
	doc := []ChapterEntry{
		{Number: "4", Title: "Ergebnisse", Page: 30},
		{Number: "4.2", Title: "Messung", Page: 32},
		{Number: "4.9", Title: "Auswertung", Page: 40},
		{Number: "4.10", Title: "Diskussion", Page: 41},
		{Number: "5", Title: "Fazit", Page: 50},
	}
	shuffled := slices.Clone(doc)
	newTestRand(7).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	SortChapters(shuffled)
	if !slices.Equal(shuffled, doc) {
		t.Errorf("SortChapters() = %v, want %v", shuffled, doc)
	}
}

func TestParseTOCLinesDotLeaders(t *testing.T) {
	entries, tier := ParseTOCLines(sampleTOCLines)
	if tier != "dot-leaders" {
		t.Errorf("tier = %q, want dot-leaders", tier)
	}
	want := []ChapterEntry{
		{Number: "1", Title: "Einleitung", Page: 3},
		{Number: "2", Title: "Methodik", Page: 8},
		{Number: "2.1", Title: "FMEA", Page: 9},
	}
	if !slices.Equal(entries, want) {
		t.Errorf("ParseTOCLines() = %v, want %v", entries, want)
	}
}

func TestParseTOCLinesFallbackTiers(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		wantTier string
		want     []ChapterEntry
	}{
		{
			name:     "whitespace separated",
			lines:    []string{"Inhalt", "1 Einleitung      3", "2 Grundlagen      7", "2.1 Begriffe   8"},
			wantTier: "whitespace",
			want: []ChapterEntry{
				{Number: "1", Title: "Einleitung", Page: 3},
				{Number: "2", Title: "Grundlagen", Page: 7},
				{Number: "2.1", Title: "Begriffe", Page: 8},
			},
		},
		{
			name:     "unnumbered",
			lines:    []string{"Inhaltsverzeichnis", "Vorwort .... 5", "Einleitung    7", "Schluss 21"},
			wantTier: "trailing-number",
			want: []ChapterEntry{
				{Title: "Vorwort", Page: 5},
				{Title: "Einleitung", Page: 7},
				{Title: "Schluss", Page: 21},
			},
		},
		{
			name:     "duplicates dropped",
			lines:    []string{"1 Einleitung ..... 3", "1 Einleitung ..... 3", "2 Methodik ..... 8"},
			wantTier: "dot-leaders",
			want: []ChapterEntry{
				{Number: "1", Title: "Einleitung", Page: 3},
				{Number: "2", Title: "Methodik", Page: 8},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, tier := ParseTOCLines(tt.lines)
			if tier != tt.wantTier {
				t.Errorf("tier = %q, want %q", tier, tt.wantTier)
			}
			if !slices.Equal(entries, tt.want) {
				t.Errorf("entries = %v, want %v", entries, tt.want)
			}
		})
	}
}

func TestParseTOC(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("marker page", func(t *testing.T) {
		doc := &Document{Paginated: true, Pages: []string{
			"Handbuch Qualität",
			"Inhaltsverzeichnis\n1 Einleitung .......... 3\n2 Methodik .......... 8\n2.1 FMEA .......... 9",
			"1 Einleitung\nText",
		}}
		entries, region, err := ParseTOC(doc, cfg)
		if err != nil {
			t.Fatalf("ParseTOC() error = %v", err)
		}
		if !region.Marker || region.Start != 1 {
			t.Errorf("region = %+v, want marker on page index 1", region)
		}
		if len(entries) != 3 {
			t.Errorf("got %d entries, want 3", len(entries))
		}
	})

	t.Run("no toc", func(t *testing.T) {
		doc := &Document{Paginated: true, Pages: []string{"Dies ist ein Text ohne Verzeichnis.", "Noch mehr Text hier."}}
		_, _, err := ParseTOC(doc, cfg)
		if !errors.Is(err, ErrTOCNotFound) {
			t.Errorf("ParseTOC() error = %v, want ErrTOCNotFound", err)
		}
	})
}

func TestLocateTOCRegionFallback(t *testing.T) {
	cfg := DefaultConfig()
	pages := make([]string, 20)
	region := LocateTOCRegion(pages, cfg)
	if region.Marker || region.Start != 0 || region.End != cfg.TOCFallbackPages {
		t.Errorf("LocateTOCRegion() = %+v, want [0,%d) without marker", region, cfg.TOCFallbackPages)
	}
}

func TestEstimatePageOffset(t *testing.T) {
	pages := []string{
		"Titel",
		"Inhalt\n1 Einleitung ..... 1\n2 Methodik ..... 2",
		"1 Einleitung\nDieses Handbuch beschreibt ...",
		"2 Methodik\nDas Vorgehen ...",
	}
	toc := []ChapterEntry{
		{Number: "1", Title: "Einleitung", Page: 1},
		{Number: "2", Title: "Methodik", Page: 2},
	}
	if got := EstimatePageOffset(pages, toc, TOCRegion{Start: 1, End: 2}); got != 2 {
		t.Errorf("EstimatePageOffset() = %d, want 2", got)
	}
	if got := EstimatePageOffset(pages[:2], toc, TOCRegion{Start: 1, End: 2}); got != 0 {
		t.Errorf("EstimatePageOffset() without body = %d, want 0", got)
	}
}

func TestContainingChapter(t *testing.T) {
	toc := []ChapterEntry{
		{Number: "1", Title: "Einleitung", Page: 3},
		{Number: "2", Title: "Methodik", Page: 8},
		{Number: "2.1", Title: "FMEA", Page: 9},
		{Number: "3", Title: "Ergebnisse", Page: 15},
		{Number: "3.1", Title: "Überblick", Page: 15},
	}
	tests := []struct {
		page   int
		want   string
		wantOK bool
	}{
		{2, "", false},
		{3, "1 Einleitung", true},
		{8, "2 Methodik", true},
		{12, "2.1 FMEA", true},
		{15, "3.1 Überblick", true},
		{99, "3.1 Überblick", true},
	}
	for _, tt := range tests {
		got, ok := ContainingChapter(toc, tt.page)
		if ok != tt.wantOK || (ok && got.Heading() != tt.want) {
			t.Errorf("ContainingChapter(%d) = %q, %v; want %q, %v", tt.page, got.Heading(), ok, tt.want, tt.wantOK)
		}
	}
}

// The three-line TOC from the quick start must yield a page question for FMEA that offers
// Methodik's page as the nearest distractor.
func TestEndToEndThreeEntryTOC(t *testing.T) {
	toc, _ := ParseTOCLines(sampleTOCLines)
	pages := make([]int, len(toc))
	for i, e := range toc {
		pages[i] = e.Page
	}
	if !slices.Equal(pages, []int{3, 8, 9}) {
		t.Fatalf("pages = %v, want [3 8 9]", pages)
	}

	fmea := toc[2]
	ranked := RankByPageDistance(fmea, toc)
	if ranked[0].Title != "Methodik" {
		t.Errorf("nearest chapter to FMEA = %q, want Methodik", ranked[0].Title)
	}

	synth := NewSynthesizer(Structure{TOC: toc}, 4, newTestRand(1))
	q, err := synth.pageOfChapter(fmea)
	if err != nil {
		t.Fatalf("pageOfChapter() error = %v", err)
	}
	if q.Answer != "9" {
		t.Errorf("answer = %q, want 9", q.Answer)
	}
	if !slices.Contains(q.Choices, "8") {
		t.Errorf("choices %v do not offer Methodik's page 8", q.Choices)
	}
	if err := CheckRecord(q, 4); err != nil {
		t.Errorf("record invalid: %v", err)
	}
}
