package docquiz

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	elementRe = regexp.MustCompile(`(?i)^\s*((?:Abbildung|Figure|Tabelle|Table|Anhang|Anlage|Annex|Appendix)\b|(?:Abb|Fig|Tab)\.)\s*([A-Z][.\-]\d+(?:[.\-]\d+)*|[A-Z]?\d+(?:[.\-]\d+)*|[A-Z](?:\b|\.))?\s*[:\-–—.]?\s*(.{3,160})$`)

	ofHeadingRe     = regexp.MustCompile(`(?i)^of\s`)
	strayLetterRe   = regexp.MustCompile(`^[A-Za-z](\d.*)$`)
	titleLeaderRe   = regexp.MustCompile(`\s*[.…·_]{2,}[\s.…·_]*(\d{0,4})\s*$`)
	titlePageNumRe  = regexp.MustCompile(`\s+\d{1,4}$`)
	titleTrailingRe = regexp.MustCompile(`[\s.,;:\-–—…·_*]+$`)
)

const maxElementTitle = 120

// elementTypes folds the matched keyword, lowercased, to its canonical type.
var elementTypes = map[string]ElementType{
	"abbildung": ElementFigure, "abb.": ElementFigure, "figure": ElementFigure, "fig.": ElementFigure,
	"tabelle": ElementTable, "tab.": ElementTable, "table": ElementTable,
	"anhang": ElementAnnex, "anlage": ElementAnnex, "annex": ElementAnnex, "appendix": ElementAnnex,
}

var elementTypeOrder = map[ElementType]int{ElementFigure: 0, ElementTable: 1, ElementAnnex: 2}

// BuildCatalog scans every page for figure, table and annex lines.
//
// Lines from a list of figures or tables carry their printed page after the dot leaders and
// keep it. Other matches get the printed page they were found on (physical minus offset) for
// paginated documents and 0 otherwise. An empty catalog is returned together with ErrElementCatalogEmpty; callers may
// ignore that error.
func BuildCatalog(doc *Document, offset int) ([]ElementEntry, error) {
	type key struct {
		typ          ElementType
		label, title string
	}
	seen := make(map[key]bool)
	var out []ElementEntry

	for i, page := range doc.Pages {
		printed := 0
		if doc.Paginated {
			printed = i + 1 - offset
		}
		for _, line := range strings.Split(page, "\n") {
			e, ok := parseElementLine(line)
			if !ok {
				continue
			}
			if e.Page == 0 {
				e.Page = max(printed, 0)
			}
			k := key{e.Type, e.Label, strings.ToLower(e.Title)}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}

	SortElements(out)
	if len(out) == 0 {
		traceStage("catalog", "no elements in %d pages", len(doc.Pages))
		return out, ErrElementCatalogEmpty
	}
	traceStage("catalog", "%d elements in %d pages", len(out), len(doc.Pages))
	return out, nil
}

// parseElementLine matches one line against the element pattern and normalizes the result.
func parseElementLine(line string) (ElementEntry, bool) {
	if tocMarkerRe.MatchString(line) {
		return ElementEntry{}, false
	}
	m := elementRe.FindStringSubmatch(line)
	if m == nil {
		return ElementEntry{}, false
	}
	// "Table of Figures" and similar list headings carry no label.
	if strings.TrimSpace(m[2]) == "" && ofHeadingRe.MatchString(m[3]) {
		return ElementEntry{}, false
	}
	typ, ok := elementTypes[strings.ToLower(m[1])]
	if !ok {
		return ElementEntry{}, false
	}

	label := strings.TrimSuffix(strings.TrimSpace(m[2]), ".")
	if typ != ElementAnnex {
		if sm := strayLetterRe.FindStringSubmatch(label); sm != nil {
			label = sm[1]
		}
	} else {
		label = strings.ToUpper(label)
	}
	if label == "" {
		label = UnresolvedLabel
	}

	title, listed := cleanElementTitle(m[3])
	if len([]rune(title)) < 3 || !letterRe.MatchString(title) {
		return ElementEntry{}, false
	}
	return ElementEntry{Type: typ, Label: label, Title: title, Page: listed}, true
}

// cleanElementTitle strips dot leaders, a trailing page number and trailing decoration,
// then caps the title length. The page number after a dot leader is returned as listed.
func cleanElementTitle(s string) (string, int) {
	s = strings.Join(strings.Fields(s), " ")
	listed := 0
	if m := titleLeaderRe.FindStringSubmatch(s); m != nil {
		listed, _ = strconv.Atoi(m[1])
		s = s[:len(s)-len(m[0])]
	}
	s = titlePageNumRe.ReplaceAllString(s, "")
	s = titleTrailingRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `"'„“”‚‘’ `)
	if r := []rune(s); len(r) > maxElementTitle {
		s = strings.TrimSpace(string(r[:maxElementTitle]))
	}
	return s, listed
}

// SortElements orders entries by type, then by label with numeric segments compared
// as numbers, then by page.
func SortElements(entries []ElementEntry) {
	slices.SortStableFunc(entries, func(a, b ElementEntry) int {
		if d := elementTypeOrder[a.Type] - elementTypeOrder[b.Type]; d != 0 {
			return d
		}
		if a.Resolved() && b.Resolved() {
			if c := CompareLabels(a.Label, b.Label); c != 0 {
				return c
			}
		} else if a.Resolved() != b.Resolved() {
			if a.Resolved() {
				return -1
			}
			return 1
		}
		return a.Page - b.Page
	})
}

// CompareLabels compares element labels such as "3.2", "3-10" or "B" segment by segment.
func CompareLabels(a, b string) int {
	norm := func(s string) string { return strings.ReplaceAll(s, "-", ".") }
	as, bs := strings.Split(norm(a), "."), strings.Split(norm(b), ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		var c int
		switch {
		case aerr == nil && berr == nil:
			c = ai - bi
		case aerr == nil:
			c = -1
		case berr == nil:
			c = 1
		default:
			c = strings.Compare(as[i], bs[i])
		}
		if c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

// ElementsOfType returns the catalog entries of one type whose labels are resolved.
func ElementsOfType(elements []ElementEntry, typ ElementType) []ElementEntry {
	var out []ElementEntry
	for _, e := range elements {
		if e.Type == typ && e.Resolved() {
			out = append(out, e)
		}
	}
	return out
}
