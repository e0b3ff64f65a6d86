package docquiz

import (
	"errors"
	"fmt"
	"slices"
)

// ErrQuizFinished is returned when an answer is submitted after the last question.
var ErrQuizFinished = errors.New("quiz already finished")

// CategoryScore is the running tally of one category.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Session is the progress of one player through one quiz. The caller owns it; the quiz
// itself is never modified. It holds no questions so that it fits in a cookie.
type Session struct {
	QuizID string                   `json:"quiz_id"`
	Index  int                      `json:"index"`
	Score  int                      `json:"score"`
	Tally  map[string]CategoryScore `json:"tally"`
}

// NewSession starts a session at the first question of quiz.
func NewSession(quiz *Quiz) *Session {
	return &Session{QuizID: quiz.ID, Tally: make(map[string]CategoryScore)}
}

// AnswerResult is the outcome of one submitted choice.
type AnswerResult struct {
	Correct bool   `json:"correct"`
	Answer  string `json:"answer"`
	Score   int    `json:"score"`
	Done    bool   `json:"done"`
}

// Current returns the question to present next.
func (s *Session) Current(quiz *Quiz) (QuestionRecord, bool) {
	if s.Index >= len(quiz.Questions) {
		return QuestionRecord{}, false
	}
	return quiz.Questions[s.Index], true
}

// Done reports whether every question has been answered.
func (s *Session) Done(quiz *Quiz) bool {
	return s.Index >= len(quiz.Questions)
}

// Answer checks choice against the current question by exact string equality and advances.
func (s *Session) Answer(quiz *Quiz, choice string) (AnswerResult, error) {
	if quiz.ID != s.QuizID {
		return AnswerResult{}, fmt.Errorf("session belongs to quiz %s, not %s", s.QuizID, quiz.ID)
	}
	q, ok := s.Current(quiz)
	if !ok {
		return AnswerResult{}, ErrQuizFinished
	}
	if !slices.Contains(q.Choices, choice) {
		return AnswerResult{}, fmt.Errorf("%q is not a choice of question %d", choice, s.Index+1)
	}

	if s.Tally == nil {
		s.Tally = make(map[string]CategoryScore)
	}
	t := s.Tally[q.Category]
	t.Total++
	correct := q.IsCorrect(choice)
	if correct {
		t.Correct++
		s.Score++
	}
	s.Tally[q.Category] = t
	s.Index++
	return AnswerResult{Correct: correct, Answer: q.Answer, Score: s.Score, Done: s.Done(quiz)}, nil
}

// CategoryResult is one row of the results table.
type CategoryResult struct {
	Category string `json:"category"`
	CategoryScore
}

// Results summarizes a session.
type Results struct {
	QuizID      string           `json:"quiz_id"`
	Source      string           `json:"source"`
	Score       int              `json:"score"`
	Answered    int              `json:"answered"`
	Total       int              `json:"total"`
	PerCategory []CategoryResult `json:"per_category"`
}

// Results returns the score so far with categories sorted by name.
func (s *Session) Results(quiz *Quiz) Results {
	r := Results{QuizID: quiz.ID, Source: quiz.Source, Score: s.Score, Answered: s.Index, Total: len(quiz.Questions)}
	for cat, t := range s.Tally {
		r.PerCategory = append(r.PerCategory, CategoryResult{Category: cat, CategoryScore: t})
	}
	slices.SortFunc(r.PerCategory, func(a, b CategoryResult) int {
		switch {
		case a.Category < b.Category:
			return -1
		case a.Category > b.Category:
			return 1
		}
		return 0
	})
	return r
}
