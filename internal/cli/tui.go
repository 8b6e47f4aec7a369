package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/workbook"
)

// Quiz styles, from the workshop quiz theme.
var (
	quizColors = workbook.DefaultQuizColors

	quizQuestionStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
				Foreground(lipgloss.Color(workbook.Palette["black"]))
	quizAnswerStyle = lipgloss.NewStyle().Padding(0, 1).
			Background(lipgloss.Color(quizColors.ButtonBG)).
			Foreground(lipgloss.Color(workbook.Palette["black"]))
	quizCursorStyle = quizAnswerStyle.
			Background(lipgloss.Color(quizColors.ButtonInsetShadow)).
			Foreground(lipgloss.Color(quizColors.Text)).Bold(true)
	quizInputStyle = lipgloss.NewStyle().Padding(0, 1).
			Background(lipgloss.Color(quizColors.NumericInputBG)).
			Foreground(lipgloss.Color(workbook.Palette["black"]))
	quizCorrectStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(quizColors.Correct))
	quizIncorrectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(workbook.Palette["grape50"]))
	quizDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

// quizItem is one question together with its label for display.
type quizItem struct {
	Label    string
	Question quiz.Question
}

// QuizModel is the bubbletea model that walks through quiz questions.
type QuizModel struct {
	Title string
	Items []quizItem

	Index    int
	Cursor   int
	Selected map[int]bool
	Input    string
	Result   *quiz.Result
	Score    int
	Done     bool
}

// NewQuizModel creates a model over the questions of sec, ordered by label.
// A non-empty label restricts it to that group.
func NewQuizModel(title string, sec quiz.Section, label string) (QuizModel, error) {
	labels := sec.Labels()
	if label != "" {
		if _, err := sec.Questions(label); err != nil {
			return QuizModel{}, err
		}
		labels = []string{label}
	}
	m := QuizModel{Title: title, Selected: make(map[int]bool)}
	for _, l := range labels {
		for _, q := range sec[l] {
			m.Items = append(m.Items, quizItem{Label: l, Question: q})
		}
	}
	return m, nil
}

func (m QuizModel) current() quiz.Question { return m.Items[m.Index].Question }

func (m QuizModel) Init() tea.Cmd {
	return nil
}

func (m QuizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.Done || len(m.Items) == 0 {
		return m, tea.Quit
	}

	if m.Result != nil {
		// feedback shown; any of these moves on
		switch key.String() {
		case "enter", "n", " ", "right":
			return m.next()
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	q := m.current()
	switch key.String() {
	case "enter":
		return m.submit(), nil
	case "up", "k":
		if q.Type != quiz.Numeric && m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if q.Type != quiz.Numeric && m.Cursor < len(q.Answers)-1 {
			m.Cursor++
		}
	case " ", "x":
		if q.Type == quiz.ManyChoice {
			m.Selected[m.Cursor] = !m.Selected[m.Cursor]
		}
	case "backspace":
		if q.Type == quiz.Numeric && m.Input != "" {
			m.Input = m.Input[:len(m.Input)-1]
		}
	case "q":
		if q.Type != quiz.Numeric {
			return m, tea.Quit
		}
	default:
		if q.Type == quiz.Numeric && len(key.Runes) > 0 {
			m.Input += string(key.Runes)
		}
	}
	return m, nil
}

// answer turns the current selection into the text [quiz.Check] expects.
func (m QuizModel) answer() string {
	switch m.current().Type {
	case quiz.Numeric:
		return m.Input
	case quiz.ManyChoice:
		var picked []string
		for i := range m.current().Answers {
			if m.Selected[i] {
				picked = append(picked, strconv.Itoa(i+1))
			}
		}
		return strings.Join(picked, ",")
	default:
		if answers := m.current().Answers; m.Cursor < len(answers) {
			return answers[m.Cursor].Answer
		}
		return ""
	}
}

func (m QuizModel) submit() QuizModel {
	res := quiz.Check(m.current(), m.answer())
	m.Result = &res
	if res.Correct {
		m.Score++
	}
	return m
}

func (m QuizModel) next() (tea.Model, tea.Cmd) {
	m.Result = nil
	m.Cursor = 0
	m.Input = ""
	m.Selected = make(map[int]bool)
	if m.Index+1 >= len(m.Items) {
		m.Done = true
		return m, tea.Quit
	}
	m.Index++
	return m, nil
}

func (m QuizModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")

	if len(m.Items) == 0 {
		b.WriteString(quizDimStyle.Render("No questions."))
		b.WriteString("\n")
		return b.String()
	}
	if m.Done {
		fmt.Fprintf(&b, "Score: %d/%d\n", m.Score, len(m.Items))
		return b.String()
	}

	item := m.Items[m.Index]
	q := item.Question
	b.WriteString(quizDimStyle.Render(fmt.Sprintf("%s · %d/%d", item.Label, m.Index+1, len(m.Items))))
	b.WriteString("\n")
	b.WriteString(quizQuestionStyle.Background(lipgloss.Color(questionBG(q.Type))).Render(q.Question))
	b.WriteString("\n\n")

	if q.Type == quiz.Numeric {
		b.WriteString(quizInputStyle.Render("> " + m.Input + "_"))
		b.WriteString("\n")
	} else {
		for i, a := range q.Answers {
			mark := "  "
			if q.Type == quiz.ManyChoice {
				mark = "[ ] "
				if m.Selected[i] {
					mark = "[x] "
				}
			}
			style := quizAnswerStyle
			if i == m.Cursor {
				style = quizCursorStyle
			}
			b.WriteString(style.Render(mark + a.Answer))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.Result != nil {
		if m.Result.Correct {
			b.WriteString(quizCorrectStyle.Render(iconSuccess + " " + m.Result.Feedback))
		} else {
			b.WriteString(quizIncorrectStyle.Render(iconError + " " + m.Result.Feedback))
		}
		b.WriteString("\n\n")
		b.WriteString(quizDimStyle.Render("⏎ next  esc quit"))
	} else {
		b.WriteString(quizDimStyle.Render(helpLine(q.Type)))
	}
	b.WriteString("\n")
	return b.String()
}

func questionBG(t quiz.Type) string {
	switch t {
	case quiz.ManyChoice:
		return quizColors.ManyChoiceBG
	case quiz.Numeric:
		return quizColors.NumericBG
	}
	return quizColors.MultipleChoiceBG
}

func helpLine(t quiz.Type) string {
	switch t {
	case quiz.ManyChoice:
		return "↑/↓ navigate  space toggle  ⏎ check  q quit"
	case quiz.Numeric:
		return "type a number  ⏎ check  esc quit"
	}
	return "↑/↓ navigate  ⏎ check  q quit"
}
