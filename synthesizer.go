package docquiz

import (
	"fmt"
	"strings"
)

// germanNames is how element types are named in question text and choices.
var germanNames = map[ElementType]string{
	ElementFigure: "Abbildung",
	ElementTable:  "Tabelle",
	ElementAnnex:  "Anhang",
}

// Synthesizer builds single structural questions from a parsed document structure.
// It holds no state between calls besides its random source.
type Synthesizer struct {
	toc      []ChapterEntry
	elements []ElementEntry
	k        int
	rng      Rand
	maxTries int
}

// NewSynthesizer creates a synthesizer producing questions with k choices.
func NewSynthesizer(st Structure, k int, rng Rand) *Synthesizer {
	return &Synthesizer{toc: st.TOC, elements: st.Elements, k: k, rng: rng, maxTries: 3}
}

// Synthesize produces one question for category.
//
// Element categories without usable entries fall through to a chapter question, so the
// returned record's Category may differ from the one requested. ErrNoCandidates means
// neither the element pool nor the TOC can serve the category.
func (s *Synthesizer) Synthesize(category string) (QuestionRecord, error) {
	switch category {
	case CategoryChapterByPage, CategoryPageOfChapter:
		return s.chapterQuestion(category)
	}

	typ, ok := elementTypeFor(category)
	if !ok {
		return QuestionRecord{}, fmt.Errorf("category %q is not structural", category)
	}
	pool := s.usableElements(typ)
	var lastErr error
	for try := 0; try < s.maxTries && len(pool) > 0; try++ {
		e := pool[s.rng.IntN(len(pool))]
		var q QuestionRecord
		var err error
		if typ == ElementAnnex {
			q, err = s.annexQuestion(e, pool)
		} else {
			q, err = s.elementChapterQuestion(category, e)
		}
		if err == nil {
			return q, nil
		}
		lastErr = err
	}

	fallback := []string{CategoryChapterByPage, CategoryPageOfChapter}[s.rng.IntN(2)]
	traceStage("synth", "%s: no usable %s entries (%v), falling back to %s", category, typ, lastErr, fallback)
	return s.chapterQuestion(fallback)
}

// Available reports whether category can be served without falling through.
func (s *Synthesizer) Available(category string) bool {
	if typ, ok := elementTypeFor(category); ok {
		return len(s.usableElements(typ)) > 0
	}
	return len(s.toc) > 0
}

// usableElements returns the entries of typ that can carry a question. Figures and tables
// need a page inside the TOC's range; annexes only a resolved label.
func (s *Synthesizer) usableElements(typ ElementType) []ElementEntry {
	var out []ElementEntry
	for _, e := range ElementsOfType(s.elements, typ) {
		if typ != ElementAnnex {
			if e.Page <= 0 {
				continue
			}
			if _, ok := ContainingChapter(s.toc, e.Page); !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func (s *Synthesizer) chapterQuestion(category string) (QuestionRecord, error) {
	if len(s.toc) == 0 {
		return QuestionRecord{}, ErrNoCandidates
	}
	var lastErr error
	for try := 0; try < s.maxTries; try++ {
		e := s.toc[s.rng.IntN(len(s.toc))]
		var q QuestionRecord
		var err error
		if category == CategoryChapterByPage {
			q, err = s.chapterByPage(e)
		} else {
			q, err = s.pageOfChapter(e)
		}
		if err == nil {
			return q, nil
		}
		lastErr = err
		traceStage("synth", "%s on %q: %v", category, e.Heading(), err)
	}
	return QuestionRecord{}, lastErr
}

// chapterByPage asks which chapter starts on the entry's page. Chapters sharing that page
// would also be correct and are left out of the distractor pool.
func (s *Synthesizer) chapterByPage(e ChapterEntry) (QuestionRecord, error) {
	var pool []ChapterEntry
	for _, o := range s.toc {
		if o.Page != e.Page {
			pool = append(pool, o)
		}
	}
	distractors, err := ChapterDistractors(e, pool, s.k, renderHeading)
	if err != nil {
		return QuestionRecord{}, err
	}
	question := fmt.Sprintf("Welches Kapitel beginnt auf Seite %d?", e.Page)
	return finalizeRecord(question, e.Heading(), distractors, CategoryChapterByPage, s.k, s.rng)
}

// pageOfChapter asks for the start page of the entry. A heading listed twice is ambiguous.
func (s *Synthesizer) pageOfChapter(e ChapterEntry) (QuestionRecord, error) {
	for _, o := range s.toc {
		if o != e && o.Heading() == e.Heading() {
			return QuestionRecord{}, fmt.Errorf("heading %q is listed twice", e.Heading())
		}
	}
	question := fmt.Sprintf("Auf welcher Seite beginnt das Kapitel „%s“?", e.Heading())
	// Short of k-1 chapter pages, PageDistractors pads with unused adjacent pages instead of
	// rejecting the question, so a TOC with few entries still yields page questions.
	return finalizeRecord(question, renderPage(e), PageDistractors(e, s.toc, s.k), CategoryPageOfChapter, s.k, s.rng)
}

// elementChapterQuestion asks which chapter contains a figure or table. Distractors are the
// neighboring chapters in TOC order; ancestors of the answer and chapters starting on the
// same page are excluded because they would be correct as well.
func (s *Synthesizer) elementChapterQuestion(category string, e ElementEntry) (QuestionRecord, error) {
	answer, ok := ContainingChapter(s.toc, e.Page)
	if !ok {
		return QuestionRecord{}, fmt.Errorf("no chapter contains page %d", e.Page)
	}

	var labels []string
	idx := -1
	seen := map[string]bool{}
	for _, c := range s.toc {
		h := c.Heading()
		if seen[h] {
			continue
		}
		if c == answer {
			idx = len(labels)
		} else if c.Page == answer.Page || isAncestor(c, answer) {
			continue
		}
		seen[h] = true
		labels = append(labels, h)
	}
	if idx < 0 {
		return QuestionRecord{}, fmt.Errorf("heading %q is listed twice", answer.Heading())
	}
	distractors, err := NeighborDistractors(labels, idx, s.k, labels, s.rng)
	if err != nil {
		return QuestionRecord{}, err
	}

	question := fmt.Sprintf("In welchem Kapitel befindet sich %s %s „%s“?", germanNames[e.Type], e.Label, e.Title)
	return finalizeRecord(question, answer.Heading(), distractors, category, s.k, s.rng)
}

// annexQuestion asks which annex holds a title. Sibling annexes come first; chapter headings
// fill in when the document has too few annexes.
func (s *Synthesizer) annexQuestion(e ElementEntry, annexes []ElementEntry) (QuestionRecord, error) {
	var labels []string
	idx := -1
	seen := map[string]bool{}
	for _, a := range annexes {
		name := annexName(a)
		if a.Label == e.Label && a.Title != e.Title {
			// other titles under the asked label would make the answer ambiguous
			continue
		}
		if seen[name] {
			continue
		}
		if a.Label != e.Label && strings.EqualFold(a.Title, e.Title) {
			return QuestionRecord{}, fmt.Errorf("title %q belongs to several annexes", e.Title)
		}
		seen[name] = true
		if a.Label == e.Label {
			idx = len(labels)
		}
		labels = append(labels, name)
	}
	if idx < 0 {
		return QuestionRecord{}, fmt.Errorf("annex %s not found", e.Label)
	}

	var fallback []string
	for _, c := range s.toc {
		fallback = append(fallback, c.Heading())
	}
	distractors, err := NeighborDistractors(labels, idx, s.k, fallback, s.rng)
	if err != nil {
		return QuestionRecord{}, err
	}

	question := fmt.Sprintf("Welcher Anhang enthält „%s“?", e.Title)
	return finalizeRecord(question, annexName(e), distractors, CategoryAnnex, s.k, s.rng)
}

func annexName(e ElementEntry) string {
	return germanNames[ElementAnnex] + " " + e.Label
}

// isAncestor reports whether a's chapter number is a proper prefix of b's ("2" of "2.1").
func isAncestor(a, b ChapterEntry) bool {
	return a.Number != "" && strings.HasPrefix(b.Number, a.Number+".")
}
