package docquiz

import (
	"fmt"
	"slices"
	"strconv"
)

// Rand is the randomness the synthesizer and assembler draw from.
// *rand.Rand from math/rand/v2 satisfies it; tests pass a seeded one.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// RankByPageDistance orders the entries of pool other than correct by absolute printed
// page distance to correct, nearest first. Ties keep document order.
func RankByPageDistance(correct ChapterEntry, pool []ChapterEntry) []ChapterEntry {
	ranked := make([]ChapterEntry, 0, len(pool))
	for _, e := range pool {
		if e != correct {
			ranked = append(ranked, e)
		}
	}
	slices.SortStableFunc(ranked, func(a, b ChapterEntry) int {
		return abs(a.Page-correct.Page) - abs(b.Page-correct.Page)
	})
	return ranked
}

// ChapterDistractors renders the k-1 chapters nearest to correct by page.
// Renderings that collide with the answer or an earlier pick are skipped and the next
// entry is drawn instead.
func ChapterDistractors(correct ChapterEntry, pool []ChapterEntry, k int, render func(ChapterEntry) string) ([]string, error) {
	answer := render(correct)
	used := map[string]bool{answer: true}
	var out []string
	for _, e := range RankByPageDistance(correct, pool) {
		if len(out) == k-1 {
			break
		}
		r := render(e)
		if used[r] {
			continue
		}
		used[r] = true
		out = append(out, r)
	}
	if len(out) < k-1 {
		return out, fmt.Errorf("%w: %d of %d for %q", ErrDistractorShortfall, len(out), k-1, answer)
	}
	return out, nil
}

// PageDistractors returns k-1 wrong page numbers for correct. Pages of the nearest chapters
// come first; when the TOC has too few, unused pages adjacent to the answer fill the rest.
func PageDistractors(correct ChapterEntry, pool []ChapterEntry, k int) []string {
	out, _ := ChapterDistractors(correct, pool, k, renderPage)
	used := map[string]bool{renderPage(correct): true}
	for _, p := range out {
		used[p] = true
	}
	for d := 1; len(out) < k-1; d++ {
		for _, p := range []int{correct.Page + d, correct.Page - d} {
			if s := strconv.Itoa(p); p > 0 && !used[s] && len(out) < k-1 {
				used[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// NeighborDistractors picks k-1 wrong answers around labels[idx]: first the entries at
// offsets ±1 and ±2 in random order, then uniform draws from fallback.
func NeighborDistractors(labels []string, idx, k int, fallback []string, rng Rand) ([]string, error) {
	answer := labels[idx]
	used := map[string]bool{answer: true}
	var out []string
	take := func(s string) {
		if len(out) < k-1 && s != "" && !used[s] {
			used[s] = true
			out = append(out, s)
		}
	}

	var near []string
	for _, off := range []int{-2, -1, 1, 2} {
		if j := idx + off; j >= 0 && j < len(labels) {
			near = append(near, labels[j])
		}
	}
	rng.Shuffle(len(near), func(i, j int) { near[i], near[j] = near[j], near[i] })
	for _, s := range near {
		take(s)
	}

	rest := slices.Clone(fallback)
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, s := range rest {
		take(s)
	}

	if len(out) < k-1 {
		return out, fmt.Errorf("%w: %d of %d for %q", ErrDistractorShortfall, len(out), k-1, answer)
	}
	return out, nil
}

// finalizeRecord shuffles the answer into the distractors and checks the record before
// anyone else sees it. The choice order is fixed from here on.
func finalizeRecord(question, answer string, distractors []string, category string, k int, rng Rand) (QuestionRecord, error) {
	choices := append([]string{answer}, distractors...)
	rng.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	q := QuestionRecord{Question: question, Choices: choices, Answer: answer, Category: category}
	if err := CheckRecord(q, k); err != nil {
		return QuestionRecord{}, err
	}
	return q, nil
}

func renderHeading(e ChapterEntry) string { return e.Heading() }
func renderPage(e ChapterEntry) string    { return strconv.Itoa(e.Page) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
