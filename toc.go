package docquiz

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	tocMarkerRe = regexp.MustCompile(`(?im)^\s*(inhaltsverzeichnis|inhalt|table of contents|contents)\b`)

	// 2.1 FMEA ........ 9
	dotLeaderRe = regexp.MustCompile(`^\s*(\d{1,2}(?:\.\d{1,3})*)\.?\s+(.+?)\s*[.…·_]{2,}[\s.…·_]*(\d{1,4})\s*$`)
	// 2.1 FMEA     9
	whitespaceRe = regexp.MustCompile(`^\s*(\d{1,2}(?:\.\d{1,3})*)\.?\s+(.+?)\s+(\d{1,4})\s*$`)
	// Einleitung .... 3
	trailingNumberRe = regexp.MustCompile(`^\s*(.*?\pL.*?)[\s.…·_]+(\d{1,3})\s*$`)

	letterRe = regexp.MustCompile(`\pL`)
)

// TOCRegion is the page span scanned for table-of-contents lines, [Start, End).
type TOCRegion struct {
	Start  int
	End    int
	Marker bool // a TOC heading was found
}

// LocateTOCRegion finds the TOC marker in the first pages, or falls back to the
// document's opening pages when no heading is present.
func LocateTOCRegion(pages []string, cfg Config) TOCRegion {
	markerPages := min(cfg.TOCMarkerPages, len(pages))
	for i := 0; i < markerPages; i++ {
		if tocMarkerRe.MatchString(pages[i]) {
			return TOCRegion{Start: i, End: min(i+1+cfg.TOCScanPages, len(pages)), Marker: true}
		}
	}
	return TOCRegion{Start: 0, End: min(cfg.TOCFallbackPages, len(pages))}
}

// tocStrategy parses TOC lines with one pattern family.
type tocStrategy struct {
	name  string
	parse func(lines []string) []ChapterEntry
}

// tocStrategies are tried in order; the first that yields entries wins.
var tocStrategies = []tocStrategy{
	{"dot-leaders", numberedParser(dotLeaderRe)},
	{"whitespace", numberedParser(whitespaceRe)},
	{"trailing-number", parseTrailingNumber},
}

func numberedParser(re *regexp.Regexp) func([]string) []ChapterEntry {
	return func(lines []string) []ChapterEntry {
		var out []ChapterEntry
		for _, line := range lines {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			title := cleanTOCTitle(m[2])
			page, err := strconv.Atoi(m[3])
			if err != nil || page <= 0 || !letterRe.MatchString(title) {
				continue
			}
			out = append(out, ChapterEntry{Number: m[1], Title: title, Page: page})
		}
		return out
	}
}

// parseTrailingNumber recovers a page index from unnumbered lines. Chapter numbers stay empty.
func parseTrailingNumber(lines []string) []ChapterEntry {
	var out []ChapterEntry
	for _, line := range lines {
		if tocMarkerRe.MatchString(line) {
			continue
		}
		m := trailingNumberRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := cleanTOCTitle(m[1])
		page, err := strconv.Atoi(m[2])
		if err != nil || page <= 0 || len([]rune(title)) < 3 {
			continue
		}
		out = append(out, ChapterEntry{Title: title, Page: page})
	}
	return out
}

// cleanTOCTitle trims leader characters and collapses whitespace.
func cleanTOCTitle(s string) string {
	s = strings.TrimRight(s, " \t.…·_")
	return strings.Join(strings.Fields(s), " ")
}

// ParseTOCLines runs the strategy cascade over raw lines and reports which tier matched.
func ParseTOCLines(lines []string) ([]ChapterEntry, string) {
	for _, s := range tocStrategies {
		if entries := s.parse(lines); len(entries) > 0 {
			return dedupChapters(entries), s.name
		}
	}
	return nil, ""
}

// ParseTOC locates the TOC region of doc and parses it into chapter entries in document order.
func ParseTOC(doc *Document, cfg Config) ([]ChapterEntry, TOCRegion, error) {
	region := LocateTOCRegion(doc.Pages, cfg)
	var lines []string
	for _, page := range doc.Pages[region.Start:region.End] {
		lines = append(lines, strings.Split(page, "\n")...)
	}

	entries, tier := ParseTOCLines(lines)
	if len(entries) == 0 {
		traceStage("toc", "pages %d-%d (marker=%v): no entries", region.Start+1, region.End, region.Marker)
		return nil, region, ErrTOCNotFound
	}
	traceStage("toc", "pages %d-%d (marker=%v): %d entries via %s", region.Start+1, region.End, region.Marker, len(entries), tier)
	return entries, region, nil
}

// dedupChapters drops repeated (title, page) pairs, keeping the first occurrence.
func dedupChapters(entries []ChapterEntry) []ChapterEntry {
	type key struct {
		title string
		page  int
	}
	seen := make(map[key]bool, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		k := key{strings.ToLower(e.Title), e.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// CompareChapterNumbers orders dotted-decimal numbers segment by segment, so "4.2" < "4.10".
// A shorter number sorts before its own subsections ("4" < "4.1").
func CompareChapterNumbers(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// SortChapters sorts entries by chapter number; unnumbered entries keep page order.
func SortChapters(entries []ChapterEntry) {
	slices.SortStableFunc(entries, func(a, b ChapterEntry) int {
		if a.Number == "" || b.Number == "" {
			return a.Page - b.Page
		}
		return CompareChapterNumbers(a.Number, b.Number)
	})
}

// EstimatePageOffset calibrates printed TOC pages against physical pages.
//
// Each chapter heading is searched in the body after the TOC region; the median of
// physical minus printed page over all headings found is returned. 0 when nothing matched.
func EstimatePageOffset(pages []string, toc []ChapterEntry, region TOCRegion) int {
	var diffs []int
	next := region.End
	for _, e := range toc {
		for p := next; p < len(pages); p++ {
			if pageHasHeading(pages[p], e) {
				diffs = append(diffs, (p+1)-e.Page)
				next = p
				break
			}
		}
	}
	if len(diffs) == 0 {
		return 0
	}
	sort.Ints(diffs)
	offset := diffs[len(diffs)/2]
	traceStage("toc", "page offset %d from %d headings", offset, len(diffs))
	return offset
}

func pageHasHeading(page string, e ChapterEntry) bool {
	want := strings.ToLower(strings.Join(strings.Fields(e.Heading()), " "))
	for _, line := range strings.Split(page, "\n") {
		if dotLeaderRe.MatchString(line) {
			continue
		}
		got := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if got == want || (e.Number != "" && strings.HasPrefix(got, want) && len(got) <= len(want)+3) {
			return true
		}
	}
	return false
}

// ContainingChapter returns the deepest entry that starts on or before page.
func ContainingChapter(toc []ChapterEntry, page int) (ChapterEntry, bool) {
	var best ChapterEntry
	found := false
	for _, e := range toc {
		if e.Page <= page && (!found || e.Page >= best.Page) {
			best, found = e, true
		}
	}
	return best, found
}
