package docquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ContentGenerator produces one content question for a passage. A returned error means
// the attempt failed; it may be retried.
type ContentGenerator interface {
	GenerateQuestion(ctx context.Context, passage, category string) (QuestionRecord, error)
}

// RetryPolicy bounds retries of the content generator. The delay grows by Multiplier after
// every failed attempt; a Multiplier of 1 or less keeps it fixed.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	// Sleep waits between attempts. nil uses a timer that honors ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the original generator loop: 3 attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second, Multiplier: 1}
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GenerateWithRetry calls gen until it returns a record that passes normalization or the
// policy is exhausted. Exhaustion yields ErrNoQuestion; only context cancellation is passed
// through as is.
func GenerateWithRetry(ctx context.Context, gen ContentGenerator, policy RetryPolicy, passage, category string, k int) (QuestionRecord, error) {
	attempts := max(policy.MaxAttempts, 1)
	delay := policy.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		q, err := gen.GenerateQuestion(ctx, passage, category)
		if err == nil {
			res := NormalizeContentRecord(q, category, k)
			if res.Action != ActionReject {
				return *res.RevisedQuestion, nil
			}
			err = fmt.Errorf("rejected: %s", res.Reason)
		}
		if ctx.Err() != nil {
			return QuestionRecord{}, ctx.Err()
		}
		lastErr = err
		VerboseLog("Content question attempt %d/%d for %s failed: %v", attempt, attempts, category, err)

		if attempt == attempts {
			break
		}
		if err := policy.sleep(ctx, delay); err != nil {
			return QuestionRecord{}, err
		}
		if policy.Multiplier > 1 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}
	}
	return QuestionRecord{}, fmt.Errorf("%w after %d attempts: %v", ErrNoQuestion, attempts, lastErr)
}

// ContentQuestionMaker generates comprehension questions with an OpenAI chat model.
type ContentQuestionMaker struct {
	client *openai.Client
	model  string
	logger *LLMLogger
}

// NewOpenAIClient builds a client from the configured key and optional base URL.
func NewOpenAIClient(cfg Config) *openai.Client {
	if cfg.OpenAIBaseURL == "" {
		return openai.NewClient(cfg.OpenAIKey)
	}
	oc := openai.DefaultConfig(cfg.OpenAIKey)
	oc.BaseURL = cfg.OpenAIBaseURL
	return openai.NewClientWithConfig(oc)
}

// NewContentQuestionMaker creates a question maker on client.
func NewContentQuestionMaker(client *openai.Client, model string) *ContentQuestionMaker {
	if model == "" {
		model = openai.GPT4o
	}
	return &ContentQuestionMaker{client: client, model: model}
}

// SetLogger attaches a per-quiz LLM log.
func (qm *ContentQuestionMaker) SetLogger(logger *LLMLogger) {
	qm.logger = logger
}

// GenerateQuestion implements ContentGenerator.
func (qm *ContentQuestionMaker) GenerateQuestion(ctx context.Context, passage, category string) (QuestionRecord, error) {
	prompt := qm.buildPrompt(passage, category)
	if qm.logger != nil {
		qm.logger.LogLLMRequest("ContentQuestionMaker", prompt)
	}

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "Du bist ein Quiz-Generator für Projektarbeiten. Jede Frage hat genau 4 Antwortmöglichkeiten.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_question",
						Description: "Submit one generated quiz question",
						Parameters: map[string]interface{}{
							"type":       "object",
							"properties": recordSchema(),
							"required":   []string{"question", "choices", "answer"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: "submit_question"},
			},
		},
	)
	if err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to generate question: %w", err)
	}

	args, err := toolArguments(resp, "submit_question")
	if qm.logger != nil {
		qm.logger.LogLLMResponse("ContentQuestionMaker", args)
	}
	if err != nil {
		return QuestionRecord{}, err
	}

	var q QuestionRecord
	if err := json.Unmarshal([]byte(args), &q); err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to parse tool arguments: %w", err)
	}
	if q.Question == "" || len(q.Choices) == 0 {
		return QuestionRecord{}, errors.New("incomplete question in tool arguments")
	}
	q.Category = category
	log.Printf("Generated %s question: %s", category, q.Question)
	return q, nil
}

func (qm *ContentQuestionMaker) buildPrompt(passage, category string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Erstelle eine kritische und komplexe Prüfungsfrage der Kategorie '%s' aus folgendem Absatz:\n\n", category))
	sb.WriteString(passage)
	sb.WriteString("\n\nDie Frage soll prüfen:\n")
	sb.WriteString("- Ob der Prüfling den Inhalt der Projektarbeit verstanden hat\n")
	sb.WriteString("- Warum diese Methode eingesetzt wurde und wie sie funktioniert\n")
	sb.WriteString("- Welche Alternativen es gibt\n")
	sb.WriteString("- Welche Auswirkungen geänderte Rahmenbedingungen auf das Ergebnis haben\n\n")

	sb.WriteString("Anforderungen:\n")
	sb.WriteString("- Jede Antwortmöglichkeit ist ein vollständiger, klarer Satz (keine \"...\" oder abgebrochenen Aussagen)\n")
	sb.WriteString("- Genau 4 plausible Antwortmöglichkeiten in \"choices\"\n")
	sb.WriteString("- \"answer\" entspricht exakt einem Eintrag aus \"choices\"\n")
	sb.WriteString("- Nutze das Tool submit_question für die Antwort\n")
	return sb.String()
}
