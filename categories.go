package docquiz

import "strings"

// Structural categories are answered from the TOC and element catalog.
const (
	CategoryChapterByPage = "kapitel_seite" // which chapter begins on page N?
	CategoryPageOfChapter = "seite_kapitel" // on which page does chapter X begin?
	CategoryFigure        = "abbildung"
	CategoryTable         = "tabelle"
	CategoryAnnex         = "anhang"
)

// Content categories are delegated to the external question generator.
const (
	CategoryFachwissen = "fachwissen"
	CategoryMethoden   = "methoden"
	CategoryAnalyse    = "analyse"
	CategoryKritik     = "kritik"
	CategoryTransfer   = "transfer"
)

// StructuralCategories lists every category the synthesizer can answer on its own.
var StructuralCategories = []string{
	CategoryChapterByPage,
	CategoryPageOfChapter,
	CategoryFigure,
	CategoryTable,
	CategoryAnnex,
}

// ContentCategories lists the comprehension categories of the content generator.
var ContentCategories = []string{
	CategoryFachwissen,
	CategoryMethoden,
	CategoryAnalyse,
	CategoryKritik,
	CategoryTransfer,
}

// IsStructural reports whether category is handled by the question synthesizer.
func IsStructural(category string) bool {
	for _, c := range StructuralCategories {
		if c == category {
			return true
		}
	}
	return false
}

// elementTypeFor maps an element category to its element type.
func elementTypeFor(category string) (ElementType, bool) {
	switch category {
	case CategoryFigure:
		return ElementFigure, true
	case CategoryTable:
		return ElementTable, true
	case CategoryAnnex:
		return ElementAnnex, true
	}
	return "", false
}

// ParseCategories splits a comma separated category list, dropping blanks.
func ParseCategories(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.ToLower(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
