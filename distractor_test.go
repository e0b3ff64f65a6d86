package docquiz

import (
	"errors"
	"slices"
	"strconv"
	"testing"
)

func TestChapterDistractorsNearestByPage(t *testing.T) {
	correct := ChapterEntry{Number: "5", Title: "Ziel", Page: 50}
	pool := []ChapterEntry{
		{Number: "1", Title: "A", Page: 10},
		{Number: "4", Title: "B", Page: 48},
		correct,
		{Number: "6", Title: "C", Page: 52},
		{Number: "8", Title: "D", Page: 90},
		{Number: "9", Title: "E", Page: 100},
	}

	got, err := ChapterDistractors(correct, pool, 4, renderPage)
	if err != nil {
		t.Fatalf("ChapterDistractors() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d distractors, want 3", len(got))
	}
	for _, want := range []string{"48", "52"} {
		if !slices.Contains(got, want) {
			t.Errorf("distractors %v missing nearest page %s", got, want)
		}
	}
	if slices.Contains(got, "100") {
		t.Errorf("distractors %v contain the farthest page", got)
	}
	if !slices.Contains(got, "10") && !slices.Contains(got, "90") {
		t.Errorf("third distractor %v should be page 10 or 90", got)
	}
}

func TestChapterDistractorsSkipsCollisions(t *testing.T) {
	correct := ChapterEntry{Title: "Einleitung", Page: 3}
	pool := []ChapterEntry{
		correct,
		{Title: "Einleitung", Page: 4}, // same rendering as the answer
		{Title: "Ablauf", Page: 5},
		{Title: "Ablauf", Page: 6},
		{Title: "Bewertung", Page: 7},
		{Title: "Fazit", Page: 20},
	}
	got, err := ChapterDistractors(correct, pool, 4, renderHeading)
	if err != nil {
		t.Fatalf("ChapterDistractors() error = %v", err)
	}
	want := []string{"Ablauf", "Bewertung", "Fazit"}
	if !slices.Equal(got, want) {
		t.Errorf("ChapterDistractors() = %v, want %v", got, want)
	}
}

func TestChapterDistractorsShortfall(t *testing.T) {
	toc, _ := ParseTOCLines(sampleTOCLines)
	_, err := ChapterDistractors(toc[2], toc, 4, renderHeading)
	if !errors.Is(err, ErrDistractorShortfall) {
		t.Errorf("ChapterDistractors() error = %v, want ErrDistractorShortfall", err)
	}
}

func TestPageDistractorsPadding(t *testing.T) {
	tests := []struct {
		name    string
		correct ChapterEntry
		pool    []ChapterEntry
		want    []string
	}{
		{
			name:    "single entry near page one",
			correct: ChapterEntry{Title: "Einleitung", Page: 1},
			pool:    []ChapterEntry{{Title: "Einleitung", Page: 1}},
			want:    []string{"2", "3", "4"},
		},
		{
			name:    "toc pages first",
			correct: ChapterEntry{Title: "FMEA", Page: 9},
			pool:    []ChapterEntry{{Title: "Einleitung", Page: 3}, {Title: "Methodik", Page: 8}, {Title: "FMEA", Page: 9}},
			want:    []string{"8", "3", "10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageDistractors(tt.correct, tt.pool, 4)
			if !slices.Equal(got, tt.want) {
				t.Errorf("PageDistractors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeighborDistractors(t *testing.T) {
	labels := []string{"A", "B", "C", "D", "E", "F"}

	for seed := uint64(1); seed <= 5; seed++ {
		got, err := NeighborDistractors(labels, 0, 4, labels, newTestRand(seed))
		if err != nil {
			t.Fatalf("seed %d: NeighborDistractors() error = %v", seed, err)
		}
		if len(got) != 3 || slices.Contains(got, "A") {
			t.Errorf("seed %d: distractors %v", seed, got)
		}
		if !slices.Contains(got, "B") || !slices.Contains(got, "C") {
			t.Errorf("seed %d: distractors %v should include both neighbors", seed, got)
		}
	}

	got, err := NeighborDistractors(labels, 3, 4, nil, newTestRand(1))
	if err != nil {
		t.Fatalf("NeighborDistractors() error = %v", err)
	}
	for _, s := range got {
		if s != "B" && s != "C" && s != "E" && s != "F" {
			t.Errorf("distractor %q is not within two positions of D", s)
		}
	}
}

func TestNeighborDistractorsShortfall(t *testing.T) {
	_, err := NeighborDistractors([]string{"A", "B"}, 0, 4, []string{"A", "B"}, newTestRand(1))
	if !errors.Is(err, ErrDistractorShortfall) {
		t.Errorf("NeighborDistractors() error = %v, want ErrDistractorShortfall", err)
	}
}

func TestFinalizeRecord(t *testing.T) {
	rng := newTestRand(3)
	for i := 0; i < 20; i++ {
		q, err := finalizeRecord("Frage "+strconv.Itoa(i)+"?", "richtig", []string{"x", "y", "z"}, CategoryFigure, 4, rng)
		if err != nil {
			t.Fatalf("finalizeRecord() error = %v", err)
		}
		if !slices.Contains(q.Choices, q.Answer) || len(q.Choices) != 4 {
			t.Fatalf("record %+v breaks the choice invariant", q)
		}
	}

	if _, err := finalizeRecord("Frage?", "x", []string{"x", "y", "z"}, CategoryFigure, 4, rng); err == nil {
		t.Error("a distractor equal to the answer must be rejected")
	}
}
