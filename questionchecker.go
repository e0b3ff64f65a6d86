package docquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// CheckRecord enforces the record invariants: exactly k distinct non-empty choices and an
// answer that is one of them verbatim.
func CheckRecord(q QuestionRecord, k int) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("empty question text")
	}
	if len(q.Choices) != k {
		return fmt.Errorf("%d choices, want %d", len(q.Choices), k)
	}
	seen := make(map[string]bool, k)
	for _, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return errors.New("empty choice")
		}
		if seen[c] {
			return fmt.Errorf("duplicate choice %q", c)
		}
		seen[c] = true
	}
	if !seen[q.Answer] {
		return fmt.Errorf("answer %q not among choices", q.Answer)
	}
	return nil
}

// NormalizeContentRecord cleans a generator response and decides whether it can be used.
//
// Ellipses are stripped and whitespace trimmed everywhere. An answer that matches a choice
// only case-insensitively is revised to that exact choice.
func NormalizeContentRecord(q QuestionRecord, category string, k int) ValidationResult {
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, "...", ""))
	}
	out := QuestionRecord{
		Question: clean(q.Question),
		Answer:   clean(q.Answer),
		Category: category,
	}
	for _, c := range q.Choices {
		out.Choices = append(out.Choices, clean(c))
	}

	action := ActionAccept
	reason := "record is well formed"
	if !containsExact(out.Choices, out.Answer) {
		for _, c := range out.Choices {
			if strings.EqualFold(c, out.Answer) {
				out.Answer = c
				action = ActionRevise
				reason = "answer matched a choice only case-insensitively"
				break
			}
		}
	}
	if err := CheckRecord(out, k); err != nil {
		return ValidationResult{Action: ActionReject, Reason: err.Error()}
	}
	if action == ActionAccept && out.Question != q.Question {
		action, reason = ActionRevise, "ellipsis or whitespace removed"
	}
	return ValidationResult{Action: action, Reason: reason, RevisedQuestion: &out}
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// QuestionChecker reviews generated content questions against their source passage.
type QuestionChecker struct {
	client *openai.Client
	model  string
}

// NewQuestionChecker creates a new question checker with OpenAI client
func NewQuestionChecker(client *openai.Client, model string) *QuestionChecker {
	return &QuestionChecker{client: client, model: model}
}

// CheckQuestion asks the model whether the question is answerable from the passage and
// returns accept, reject or a revised record. Revisions must pass CheckRecord.
func (qc *QuestionChecker) CheckQuestion(ctx context.Context, q QuestionRecord, passage string, k int, logger *LLMLogger) (*ValidationResult, error) {
	prompt := qc.buildPrompt(q, passage)
	if logger != nil {
		logger.LogLLMRequest("QuestionChecker", prompt)
	}

	resp, err := qc.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qc.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "Du prüfst Quizfragen zu einer Projektarbeit auf Richtigkeit und Eindeutigkeit.",
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
						Name:        "evaluate_question",
						Description: "Evaluate a quiz question and decide whether to accept, reject, or revise it",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"reason": map[string]interface{}{
									"type":        "string",
									"description": "Explanation for the decision",
								},
								"action": map[string]interface{}{
									"type":        "string",
									"enum":        []string{"accept", "reject", "revise"},
									"description": "What to do with this question",
								},
								"revised_question": map[string]interface{}{
									"type":        "object",
									"properties":  recordSchema(),
									"description": "Revised question (only if action is 'revise')",
								},
							},
							"required": []string{"reason", "action"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: "evaluate_question"},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check question: %w", err)
	}

	args, err := toolArguments(resp, "evaluate_question")
	if logger != nil {
		logger.LogLLMResponse("QuestionChecker", args)
	}
	if err != nil {
		return nil, err
	}

	var toolArgs struct {
		Reason          string          `json:"reason"`
		Action          string          `json:"action"`
		RevisedQuestion *QuestionRecord `json:"revised_question,omitempty"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	result := &ValidationResult{Action: ValidationAction(toolArgs.Action), Reason: toolArgs.Reason}
	switch result.Action {
	case ActionAccept, ActionReject:
	case ActionRevise:
		if toolArgs.RevisedQuestion == nil {
			result.Action, result.Reason = ActionReject, "revision requested without a revised question"
			break
		}
		norm := NormalizeContentRecord(*toolArgs.RevisedQuestion, q.Category, k)
		if norm.Action == ActionReject {
			result.Action, result.Reason = ActionReject, "revised question invalid: "+norm.Reason
			break
		}
		result.RevisedQuestion = norm.RevisedQuestion
	default:
		return nil, fmt.Errorf("unexpected action %q", toolArgs.Action)
	}

	if logger != nil {
		logger.LogQuestionResult(q.Question, string(result.Action), result.Reason)
	}
	VerboseLog("Question %q: %s - %s", q.Question, result.Action, result.Reason)
	return result, nil
}

func (qc *QuestionChecker) buildPrompt(q QuestionRecord, passage string) string {
	var sb strings.Builder

	sb.WriteString("Prüfe die folgende Quizfrage anhand des Absatzes.\n\n")
	sb.WriteString(fmt.Sprintf("Absatz:\n%s\n\n", passage))
	sb.WriteString(fmt.Sprintf("Kategorie: %s\n", q.Category))
	sb.WriteString(fmt.Sprintf("Frage: %s\n\n", q.Question))

	sb.WriteString("Antwortmöglichkeiten:\n")
	for i, c := range q.Choices {
		marker := " "
		if c == q.Answer {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s%d. %s\n", marker, i+1, c))
	}

	sb.WriteString("\nKriterien:\n")
	sb.WriteString("- REJECT, wenn die richtige Antwort im Fragetext steht oder der Absatz sie nicht stützt.\n")
	sb.WriteString("- REVISE, wenn die Frage brauchbar ist, aber unklar formuliert oder eine Antwort abgebrochen ist.\n")
	sb.WriteString("- ACCEPT, wenn die Frage eindeutig und die markierte Antwort korrekt ist.\n")
	sb.WriteString("Eine Überarbeitung braucht genau 4 vollständige Antwortsätze; \"answer\" muss exakt einer davon sein.\n")
	return sb.String()
}

// toolArguments returns the arguments of the named tool call in resp.
func toolArguments(resp openai.ChatCompletionResponse, name string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return "", fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != name {
		return "", fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}
	return toolCall.Function.Arguments, nil
}

// recordSchema is the JSON schema of a QuestionRecord as the model must send it.
func recordSchema() map[string]interface{} {
	return map[string]interface{}{
		"question": map[string]interface{}{
			"type":        "string",
			"description": "Die Frage als vollständiger Satz",
		},
		"choices": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Genau 4 vollständige, plausible Antwortsätze",
		},
		"answer": map[string]interface{}{
			"type":        "string",
			"description": "Die richtige Antwort, wörtlich identisch mit einem Eintrag aus choices",
		},
	}
}
