package docquiz

import "time"

// ChapterEntry is one parsed table-of-contents line.
type ChapterEntry struct {
	Number string `json:"number"` // dotted decimal, empty when the TOC carried no numbering
	Title  string `json:"title"`
	Page   int    `json:"printed_page"`
}

// Heading renders the entry the way it appears as a multiple choice option.
func (c ChapterEntry) Heading() string {
	if c.Number == "" {
		return c.Title
	}
	return c.Number + " " + c.Title
}

// Level returns the nesting depth derived from the chapter number (0 for "3", 1 for "3.2").
func (c ChapterEntry) Level() int {
	if c.Number == "" {
		return 0
	}
	level := 0
	for _, r := range c.Number {
		if r == '.' {
			level++
		}
	}
	return level
}

// ElementType is the canonical kind of a labeled document element
type ElementType string

const (
	ElementFigure ElementType = "Figure"
	ElementTable  ElementType = "Table"
	ElementAnnex  ElementType = "Annex"
)

// UnresolvedLabel marks an element whose label could not be recovered from the text.
const UnresolvedLabel = "?"

// ElementEntry is one figure, table or annex reference found in the document body.
type ElementEntry struct {
	Type  ElementType `json:"type"`
	Label string      `json:"label"`
	Title string      `json:"title"`
	Page  int         `json:"page"` // printed page, 0 when the source format has no pages
}

// Name renders the element as "Figure 3.2" or "Annex B".
func (e ElementEntry) Name() string {
	if e.Label == "" || e.Label == UnresolvedLabel {
		return string(e.Type)
	}
	return string(e.Type) + " " + e.Label
}

// Resolved reports whether the label is usable as an answer or distractor.
func (e ElementEntry) Resolved() bool {
	return e.Label != "" && e.Label != UnresolvedLabel
}

// QuestionRecord is a single multiple choice question handed to the quiz runner.
// The answer is checked by exact string equality against the selected choice.
type QuestionRecord struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
}

// IsCorrect reports whether choice is the right answer.
func (q QuestionRecord) IsCorrect(choice string) bool {
	return choice == q.Answer
}

// Quiz is the ordered question sequence produced for one document.
type Quiz struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	Questions  []QuestionRecord `json:"questions"`
	Requested  int              `json:"requested"`
	Attempts   int              `json:"attempts"`
	Incomplete bool             `json:"incomplete"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Structure is the navigational model recovered from a document.
type Structure struct {
	TOC        []ChapterEntry `json:"toc"`
	Elements   []ElementEntry `json:"elements"`
	PageOffset int            `json:"page_offset"` // physical page = printed page + offset
	Paginated  bool           `json:"paginated"`
}

// GenerationRequest describes one quiz generation run.
type GenerationRequest struct {
	Source         string   `json:"source"`
	Format         Format   `json:"format"`
	NumQuestions   int      `json:"num_questions"`
	Categories     []string `json:"categories"`
	SeedCategories bool     `json:"seed_categories"`
}

// ValidationResult represents the result of checking a question
type ValidationResult struct {
	Action          ValidationAction `json:"action"`
	Reason          string           `json:"reason"`
	RevisedQuestion *QuestionRecord  `json:"revised_question,omitempty"`
}

// ValidationAction represents what the validator decided to do
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
	ActionRevise ValidationAction = "revise"
)
