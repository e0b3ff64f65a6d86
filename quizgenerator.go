package docquiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// QuizGenerator orchestrates extraction, structure recovery and quiz assembly for one
// document per call. It is safe for concurrent use; calls share no mutable state.
type QuizGenerator struct {
	cfg     Config
	client  *openai.Client
	content ContentGenerator
	logDir  string
}

// NewQuizGenerator creates a new quiz generator. Content categories are enabled when
// cfg carries an OpenAI key.
func NewQuizGenerator(cfg Config) *QuizGenerator {
	qg := &QuizGenerator{cfg: cfg, logDir: "."}
	if cfg.OpenAIKey != "" {
		qg.client = NewOpenAIClient(cfg)
	}
	return qg
}

// SetContentGenerator replaces the OpenAI question maker, e.g. with a fake in tests.
func (qg *QuizGenerator) SetContentGenerator(gen ContentGenerator) {
	qg.content = gen
}

// SetLogDir sets where per-quiz LLM logs are written.
func (qg *QuizGenerator) SetLogDir(dir string) {
	qg.logDir = dir
}

// Config returns the generator's configuration.
func (qg *QuizGenerator) Config() Config {
	return qg.cfg
}

// Analyze extracts the document and recovers its structure. An empty TOC or catalog is not
// an error here; only an unreadable document is.
func (qg *QuizGenerator) Analyze(ctx context.Context, data []byte, format Format) (*Document, *Structure, error) {
	doc, err := ExtractDocument(ctx, data, format, qg.cfg)
	if err != nil {
		return nil, nil, err
	}

	st := &Structure{Paginated: doc.Paginated}
	toc, region, err := ParseTOC(doc, qg.cfg)
	if err != nil && !errors.Is(err, ErrTOCNotFound) {
		return nil, nil, err
	}
	st.TOC = toc
	if doc.Paginated && len(toc) > 0 {
		st.PageOffset = EstimatePageOffset(doc.Pages, toc, region)
	}

	elements, err := BuildCatalog(doc, st.PageOffset)
	if err != nil && !errors.Is(err, ErrElementCatalogEmpty) {
		return nil, nil, err
	}
	st.Elements = elements

	log.Printf("Analyzed %s document: %d pages, %d TOC entries, %d elements, page offset %d",
		format, len(doc.Pages), len(st.TOC), len(st.Elements), st.PageOffset)
	return doc, st, nil
}

// GenerateQuiz analyzes data and assembles a quiz for req. rng may be nil.
//
// The returned error is ErrExtractionEmpty or ErrTOCNotFound for the unrecoverable cases;
// an incomplete quiz is returned without error.
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, data []byte, req GenerationRequest, rng Rand) (*Quiz, *Structure, error) {
	if req.NumQuestions <= 0 {
		req.NumQuestions = qg.cfg.QuestionsTotal
	}
	if len(req.Categories) == 0 {
		req.Categories = qg.cfg.Categories
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	log.Printf("Starting quiz generation for %s, target questions: %d", req.Source, req.NumQuestions)

	doc, st, err := qg.Analyze(ctx, data, req.Format)
	if err != nil {
		return nil, nil, err
	}

	quizID := uuid.NewString()
	asm := NewAssembler(*st, qg.cfg, rng)

	if gen, checker := qg.contentGenerator(); gen != nil && wantsContent(req.Categories) {
		logger, err := NewLLMLogger(qg.logDir, quizID, req, st)
		if err != nil {
			log.Printf("Warning: failed to create LLM logger: %v", err)
		} else {
			defer logger.Close()
			if m, ok := gen.(*ContentQuestionMaker); ok {
				m.SetLogger(logger)
			}
			asm.SetLogger(logger)
		}
		asm.SetContent(gen, NewPassagePool(doc.Paragraphs, qg.cfg.PassageMaxLength, rng), checker)
	}

	quiz, err := asm.Assemble(ctx, req.NumQuestions, req.Categories, req.SeedCategories)
	if err != nil {
		return nil, st, fmt.Errorf("assemble quiz: %w", err)
	}
	quiz.ID = quizID
	quiz.Source = req.Source

	log.Printf("Quiz generation complete: %d questions for '%s' (%d attempts)", len(quiz.Questions), req.Source, quiz.Attempts)
	return quiz, st, nil
}

// contentGenerator returns the generator for this call. The OpenAI maker is built per call
// so that each quiz logs to its own file.
func (qg *QuizGenerator) contentGenerator() (ContentGenerator, *QuestionChecker) {
	if qg.content != nil {
		return qg.content, nil
	}
	if qg.client == nil {
		return nil, nil
	}
	return NewContentQuestionMaker(qg.client, qg.cfg.OpenAIModel), NewQuestionChecker(qg.client, qg.cfg.OpenAIModel)
}

func wantsContent(categories []string) bool {
	for _, c := range categories {
		if !IsStructural(c) {
			return true
		}
	}
	return false
}
