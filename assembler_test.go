package docquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGenerator returns one question per passage; the first failures calls fail.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (g *fakeGenerator) GenerateQuestion(_ context.Context, passage, category string) (QuestionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return QuestionRecord{}, fmt.Errorf("model unavailable (call %d)", g.calls)
	}
	return QuestionRecord{
		Question: "Worum geht es in: " + passage + "?",
		Choices:  []string{"Um Risiken...", "Um Kosten", "Um Termine", "Um Personal"},
		Answer:   "um risiken",
	}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry.Sleep = noSleep
	return cfg
}

func TestAssembleLivenessWithSingleEntryTOC(t *testing.T) {
	st := Structure{TOC: []ChapterEntry{{Number: "1", Title: "Einleitung", Page: 3}}}
	asm := NewAssembler(st, testConfig(), newTestRand(1))

	quiz, err := asm.Assemble(context.Background(), 10, StructuralCategories, false)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if quiz.Attempts > 50 {
		t.Errorf("attempts = %d, want at most 50", quiz.Attempts)
	}
	if !quiz.Incomplete {
		t.Error("quiz should be marked incomplete")
	}
	if len(quiz.Questions) >= 10 {
		t.Errorf("got %d questions from a one-entry TOC", len(quiz.Questions))
	}
}

func TestAssembleProducesUniqueValidQuestions(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		asm := NewAssembler(sampleStructure(), testConfig(), newTestRand(seed))
		quiz, err := asm.Assemble(context.Background(), 10, StructuralCategories, false)
		if err != nil {
			t.Fatalf("seed %d: Assemble() error = %v", seed, err)
		}

		seen := map[string]bool{}
		for _, q := range quiz.Questions {
			if seen[q.Question] {
				t.Errorf("seed %d: duplicate question %q", seed, q.Question)
			}
			seen[q.Question] = true
			if err := CheckRecord(q, 4); err != nil {
				t.Errorf("seed %d: invalid record %+v: %v", seed, q, err)
			}
		}
		if quiz.Incomplete != (len(quiz.Questions) < 10) {
			t.Errorf("seed %d: Incomplete = %v with %d questions", seed, quiz.Incomplete, len(quiz.Questions))
		}
	}
}

func TestAssembleSeedsEveryCategoryFirst(t *testing.T) {
	categories := []string{CategoryAnnex, CategoryFigure, CategoryPageOfChapter, CategoryTable, CategoryChapterByPage}
	asm := NewAssembler(sampleStructure(), testConfig(), newTestRand(3))

	quiz, err := asm.Assemble(context.Background(), len(categories), categories, true)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(quiz.Questions) != len(categories) {
		t.Fatalf("got %d questions, want %d", len(quiz.Questions), len(categories))
	}
	for i, q := range quiz.Questions {
		if q.Category != categories[i] {
			t.Errorf("question %d category = %q, want %q", i, q.Category, categories[i])
		}
	}
}

func TestAssembleWithoutTOC(t *testing.T) {
	asm := NewAssembler(Structure{}, testConfig(), newTestRand(1))
	_, err := asm.Assemble(context.Background(), 10, StructuralCategories, false)
	if !errors.Is(err, ErrTOCNotFound) {
		t.Errorf("Assemble() error = %v, want ErrTOCNotFound", err)
	}
	if !IsFatal(err) {
		t.Error("a missing TOC should be fatal")
	}
}

func TestAssembleUnknownCategories(t *testing.T) {
	asm := NewAssembler(sampleStructure(), testConfig(), newTestRand(1))
	_, err := asm.Assemble(context.Background(), 5, []string{"quatsch"}, false)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Assemble() error = %v, want ErrNoCandidates", err)
	}
}

func TestAssembleContentCategories(t *testing.T) {
	paragraphs := []string{
		"Die FMEA bewertet mögliche Fehler eines Prozesses nach Auftreten, Bedeutung und Entdeckung.",
		"Die Risikoprioritätszahl ergibt sich als Produkt der drei Bewertungen und ordnet die Maßnahmen.",
	}
	gen := &fakeGenerator{failures: 1}
	asm := NewAssembler(Structure{}, testConfig(), newTestRand(1))
	asm.SetContent(gen, NewPassagePool(paragraphs, 300, nil), nil)

	quiz, err := asm.Assemble(context.Background(), 5, []string{CategoryFachwissen, CategoryKritik}, false)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("got %d questions, want one per passage", len(quiz.Questions))
	}
	if !quiz.Incomplete {
		t.Error("quiz should be incomplete once the passages run out")
	}
	for _, q := range quiz.Questions {
		if q.Answer != "Um Risiken" {
			t.Errorf("answer = %q, want the exact choice", q.Answer)
		}
		for _, c := range q.Choices {
			if strings.Contains(c, "...") {
				t.Errorf("choice %q still has an ellipsis", c)
			}
		}
		if q.Category != CategoryFachwissen && q.Category != CategoryKritik {
			t.Errorf("category = %q", q.Category)
		}
	}
	if gen.calls != 3 {
		t.Errorf("generator called %d times, want 3 (one retry)", gen.calls)
	}
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	asm := NewAssembler(Structure{}, cfg, newTestRand(1))
	asm.SetContent(&fakeGenerator{failures: 10}, NewPassagePool([]string{"Ein ausreichend langer Absatz über Qualitätssicherung."}, 300, nil), nil)

	if _, err := asm.Assemble(ctx, 3, []string{CategoryAnalyse}, false); !errors.Is(err, context.Canceled) {
		t.Errorf("Assemble() error = %v, want context.Canceled", err)
	}
}
