package docquiz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LLMLogger handles logging of all LLM interactions and assembly decisions for one quiz
type LLMLogger struct {
	file   *os.File
	path   string
	mu     sync.Mutex
	quizID string
}

// NewLLMLogger creates log/<quizID>.log under dir and writes the run header.
func NewLLMLogger(dir, quizID string, req GenerationRequest, st *Structure) (*LLMLogger, error) {
	logDir := filepath.Join(dir, "log")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(logDir, fmt.Sprintf("%s.log", quizID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:   file,
		path:   filename,
		quizID: quizID,
	}

	logger.Logf("=== Quiz Generation Log ===\n")
	logger.Logf("Quiz ID: %s\n", quizID)
	logger.Logf("Source: %s (%s)\n", req.Source, req.Format)
	logger.Logf("Number of Questions: %d\n", req.NumQuestions)
	logger.Logf("Categories: %s\n", strings.Join(req.Categories, ", "))
	if st != nil {
		logger.Logf("TOC entries: %d, elements: %d, page offset: %d\n", len(st.TOC), len(st.Elements), st.PageOffset)
	}
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Path returns the log file location.
func (ll *LLMLogger) Path() string {
	return ll.path
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogQuestionResult logs the result of processing a question
func (ll *LLMLogger) LogQuestionResult(question, action, reason string) {
	ll.Logf("Question %q: %s - %s\n", question, action, reason)
}

// LogDedupResult logs the result of deduplication
func (ll *LLMLogger) LogDedupResult(question string, isDuplicate bool) {
	if isDuplicate {
		ll.Logf("Question %q: DUPLICATE\n", question)
	} else {
		ll.Logf("Question %q: UNIQUE\n", question)
	}
}

// Close writes the footer and closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.logf("=== Quiz Generation Complete ===\n")
	ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.logf("=============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
