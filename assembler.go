package docquiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"
)

// attemptsPerQuestion bounds synthesis attempts at total*attemptsPerQuestion.
const attemptsPerQuestion = 5

// Assembler draws questions until the quiz is full or the attempt budget is spent.
type Assembler struct {
	synth    *Synthesizer
	hasTOC   bool
	k        int
	rng      Rand
	content  ContentGenerator
	checker  *QuestionChecker
	passages *PassagePool
	retry    RetryPolicy
	logger   *LLMLogger
}

// NewAssembler creates an assembler over a parsed structure.
func NewAssembler(st Structure, cfg Config, rng Rand) *Assembler {
	return &Assembler{
		synth:  NewSynthesizer(st, cfg.Choices, rng),
		hasTOC: len(st.TOC) > 0,
		k:      cfg.Choices,
		rng:    rng,
		retry:  cfg.Retry,
	}
}

// SetContent enables content categories. checker may be nil.
func (a *Assembler) SetContent(gen ContentGenerator, passages *PassagePool, checker *QuestionChecker) {
	a.content, a.passages, a.checker = gen, passages, checker
}

// SetLogger attaches the per-quiz log.
func (a *Assembler) SetLogger(logger *LLMLogger) {
	a.logger = logger
}

// Assemble produces up to total questions unique by question text.
//
// At most total*5 synthesis attempts are made; when the budget runs out the partial quiz is
// returned with Incomplete set. With seed set every category is tried once, in order, before
// random draws begin. ErrTOCNotFound is returned when only structural categories were asked
// for and the TOC is empty.
func (a *Assembler) Assemble(ctx context.Context, total int, categories []string, seed bool) (*Quiz, error) {
	draw, err := a.usableCategories(categories)
	if err != nil {
		return nil, err
	}

	quiz := &Quiz{Requested: total, CreatedAt: time.Now()}
	dedup := NewQuestionDedup(a.logger)
	seeding := slices.Clone(draw)
	if !seed {
		seeding = nil
	}

	maxAttempts := total * attemptsPerQuestion
	for len(quiz.Questions) < total && quiz.Attempts < maxAttempts && len(draw) > 0 {
		var category string
		if len(seeding) > 0 {
			category, seeding = seeding[0], seeding[1:]
		} else {
			category = draw[a.rng.IntN(len(draw))]
		}
		quiz.Attempts++

		q, err := a.produce(ctx, category)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			VerboseLog("Attempt %d (%s) discarded: %v", quiz.Attempts, category, err)
			if !IsStructural(category) && a.passages.IsEmpty() {
				draw = slices.DeleteFunc(draw, func(c string) bool { return !IsStructural(c) })
			}
			continue
		}
		if !dedup.Accept(q) {
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}

	quiz.Incomplete = len(quiz.Questions) < total
	if quiz.Incomplete {
		log.Printf("Quiz incomplete: %d of %d questions after %d attempts", len(quiz.Questions), total, quiz.Attempts)
	}
	return quiz, nil
}

// usableCategories filters the requested categories down to those that can be served.
func (a *Assembler) usableCategories(categories []string) ([]string, error) {
	var out []string
	droppedStructural := false
	for _, c := range categories {
		switch {
		case IsStructural(c):
			if !a.hasTOC {
				droppedStructural = true
				continue
			}
		case slices.Contains(ContentCategories, c):
			if a.content == nil || a.passages == nil || a.passages.IsEmpty() {
				VerboseLog("Content category %s skipped: no generator or passages", c)
				continue
			}
		default:
			log.Printf("Unknown category %q ignored", c)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		if droppedStructural {
			return nil, ErrTOCNotFound
		}
		return nil, fmt.Errorf("%w: categories %v", ErrNoCandidates, categories)
	}
	return out, nil
}

// produce makes one attempt at a question for category.
func (a *Assembler) produce(ctx context.Context, category string) (QuestionRecord, error) {
	if IsStructural(category) {
		return a.synth.Synthesize(category)
	}

	passage, ok := a.passages.Get()
	if !ok {
		return QuestionRecord{}, ErrNoQuestion
	}
	q, err := GenerateWithRetry(ctx, a.content, a.retry, passage, category, a.k)
	if err != nil {
		return QuestionRecord{}, err
	}

	if a.checker != nil {
		res, err := a.checker.CheckQuestion(ctx, q, passage, a.k, a.logger)
		switch {
		case err != nil:
			VerboseLog("Question check failed, keeping question: %v", err)
		case res.Action == ActionReject:
			return QuestionRecord{}, fmt.Errorf("%w: %s", ErrNoQuestion, res.Reason)
		case res.Action == ActionRevise:
			q = *res.RevisedQuestion
		}
	}

	var distractors []string
	for _, c := range q.Choices {
		if c != q.Answer {
			distractors = append(distractors, c)
		}
	}
	return finalizeRecord(q.Question, q.Answer, distractors, category, a.k, a.rng)
}

// IsFatal reports whether err ends quiz generation rather than a single attempt.
func IsFatal(err error) bool {
	return errors.Is(err, ErrExtractionEmpty) || errors.Is(err, ErrTOCNotFound) || errors.Is(err, ErrNoCandidates)
}
