package docquiz

import (
	"encoding/json"
	"fmt"
	"os"
)

// QuizFile is the on-disk form of a generated quiz.
type QuizFile struct {
	Quiz      *Quiz      `json:"quiz"`
	Structure *Structure `json:"structure,omitempty"`
}

// SaveQuizFile writes quiz and its structure as indented JSON.
func SaveQuizFile(path string, quiz *Quiz, st *Structure) error {
	data, err := json.MarshalIndent(QuizFile{Quiz: quiz, Structure: st}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadQuizFile reads a quiz written by SaveQuizFile. Every question is checked again so
// that an edited file cannot break the answer check.
func LoadQuizFile(path string, k int) (*QuizFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var qf QuizFile
	if err := json.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if qf.Quiz == nil {
		return nil, fmt.Errorf("%s contains no quiz", path)
	}
	for i, q := range qf.Quiz.Questions {
		if err := CheckRecord(q, k); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return &qf, nil
}
