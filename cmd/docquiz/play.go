package main

import (
	"fmt"
	"strings"

	"docquiz"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	correctStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	wrongStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

const choiceKeys = "abcdefghij"

type model struct {
	quiz     *docquiz.Quiz
	session  *docquiz.Session
	cursor   int
	last     *docquiz.AnswerResult
	chosen   string
	err      string
	quitting bool
	width    int
	height   int
}

func newModel(quiz *docquiz.Quiz) model {
	return model{quiz: quiz, session: docquiz.NewSession(quiz)}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		if m.session.Done(m.quiz) && m.last == nil {
			if key == "enter" || key == " " {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		// feedback for the previous answer is showing; any advance key moves on
		if m.last != nil {
			if key == "enter" || key == " " || key == "right" {
				m.last = nil
				m.chosen = ""
				m.cursor = 0
			}
			return m, nil
		}

		q, _ := m.session.Current(m.quiz)
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(q.Choices)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m.answer(q.Choices[m.cursor]), nil
		default:
			if i := strings.Index(choiceKeys, key); len(key) == 1 && i >= 0 && i < len(q.Choices) {
				m.cursor = i
				return m.answer(q.Choices[i]), nil
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m model) answer(choice string) model {
	res, err := m.session.Answer(m.quiz, choice)
	if err != nil {
		m.err = err.Error()
		return m
	}
	m.err = ""
	m.last = &res
	m.chosen = choice
	return m
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("docquiz: "+m.quiz.Source) + "\n\n")

	if m.session.Done(m.quiz) && m.last == nil {
		b.WriteString(m.resultsView())
		b.WriteString("\n" + controlsStyle.Render("[enter] beenden"))
		return b.String()
	}

	q := m.currentOrLast()
	b.WriteString(statusStyle.Render(fmt.Sprintf("Frage %d/%d | %s | Punkte: %d",
		m.questionNumber(), len(m.quiz.Questions), q.Category, m.session.Score)) + "\n\n")
	b.WriteString(questionStyle.Width(m.wrapWidth()).Render(q.Question) + "\n\n")

	for i, c := range q.Choices {
		label := fmt.Sprintf("%c) %s", choiceKeys[i], c)
		switch {
		case m.last != nil && c == m.last.Answer:
			b.WriteString("  " + correctStyle.Render(label))
		case m.last != nil && c == m.chosen:
			b.WriteString("  " + wrongStyle.Render(label))
		case m.last == nil && i == m.cursor:
			b.WriteString(cursorStyle.Render("> " + label))
		default:
			b.WriteString("  " + choiceStyle.Render(label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.last != nil {
		if m.last.Correct {
			b.WriteString(correctStyle.Render("Richtig!") + "\n")
		} else {
			b.WriteString(wrongStyle.Render("Falsch. Richtig ist: "+m.last.Answer) + "\n")
		}
		b.WriteString("\n" + controlsStyle.Render("[enter] weiter  [q] beenden"))
		return b.String()
	}

	if m.err != "" {
		b.WriteString(wrongStyle.Render(m.err) + "\n")
	}
	b.WriteString(controlsStyle.Render("[↑/↓] wählen  [enter] antworten  [a-d] direkt  [q] beenden"))
	return b.String()
}

// currentOrLast returns the question on screen. While feedback is shown the session has
// already advanced past it.
func (m model) currentOrLast() docquiz.QuestionRecord {
	if m.last != nil {
		return m.quiz.Questions[m.session.Index-1]
	}
	q, _ := m.session.Current(m.quiz)
	return q
}

func (m model) questionNumber() int {
	if m.last != nil {
		return m.session.Index
	}
	return m.session.Index + 1
}

func (m model) wrapWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return 76
}

func (m model) resultsView() string {
	r := m.session.Results(m.quiz)
	var b strings.Builder
	b.WriteString(correctStyle.Render("Quiz beendet!") + "\n\n")
	b.WriteString(fmt.Sprintf("Gesamt: %d/%d (%.1f%%)\n\n", r.Score, r.Total, percent(r.Score, r.Total)))
	for _, c := range r.PerCategory {
		b.WriteString(fmt.Sprintf("  %-16s %d/%d (%.1f%%)\n", c.Category, c.Correct, c.Total, percent(c.Correct, c.Total)))
	}
	return b.String()
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// playQuiz runs the terminal quiz and returns the player's results, including partial
// results when the player quits early.
func playQuiz(quiz *docquiz.Quiz) (docquiz.Results, error) {
	if len(quiz.Questions) == 0 {
		return docquiz.Results{}, fmt.Errorf("quiz has no questions")
	}

	p := tea.NewProgram(newModel(quiz), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return docquiz.Results{}, err
	}

	m := final.(model)
	results := m.session.Results(quiz)
	fmt.Printf("Ergebnis: %d/%d (%.1f%%)\n", results.Score, results.Total, percent(results.Score, results.Total))
	for _, c := range results.PerCategory {
		fmt.Printf("  %-16s %d/%d\n", c.Category, c.Correct, c.Total)
	}
	return results, nil
}
