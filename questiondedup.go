package docquiz

// QuestionDedup rejects questions whose text was already accepted into the quiz.
type QuestionDedup struct {
	seen   map[string]bool
	logger *LLMLogger
}

// NewQuestionDedup creates a new question deduplicator
func NewQuestionDedup(logger *LLMLogger) *QuestionDedup {
	return &QuestionDedup{seen: make(map[string]bool), logger: logger}
}

// Accept records q and reports true when its question text is new.
func (qd *QuestionDedup) Accept(q QuestionRecord) bool {
	dup := qd.seen[q.Question]
	if qd.logger != nil {
		qd.logger.LogDedupResult(q.Question, dup)
	}
	if dup {
		VerboseLog("Duplicate question skipped: %s", q.Question)
		return false
	}
	qd.seen[q.Question] = true
	return true
}

// Len returns the number of accepted questions.
func (qd *QuestionDedup) Len() int {
	return len(qd.seen)
}
