package cli

import (
	"errors"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/workbook"
)

func (c *CLI) quizCommand() *cobra.Command {
	var answer string
	var question int

	cmd := &cobra.Command{
		Use:   "quiz [workbook] [label]",
		Short: "Answer the workshop quiz questions in the terminal",
		Long: `Answer the workshop quiz questions in the terminal.

Without arguments, list the workbooks and their question labels. With
--answer, check one answer without starting the interactive quiz:

  coaldraw quiz CoalescentHandson
  coaldraw quiz CoalescentHandson Q2 --answer 6`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qf, err := c.loadQuiz()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				c.listQuiz(qf)
				return nil
			}
			sec, err := c.quizSection(qf, args[0])
			if err != nil {
				return err
			}
			label := ""
			if len(args) == 2 {
				label = args[1]
			}
			if cmd.Flags().Changed("answer") {
				return c.checkAnswer(sec, label, question, answer)
			}

			m, err := NewQuizModel(args[0], sec, label)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(QuizModel); ok && fm.Done {
				c.printSuccess("Score %d/%d", fm.Score, len(fm.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&answer, "answer", "", "check this answer and exit (needs a label)")
	cmd.Flags().IntVar(&question, "question", 1, "question number within the label, for --answer")
	return cmd
}

// quizSection returns a section prepared by its workbook when one exists.
func (c *CLI) quizSection(qf quiz.File, name string) (quiz.Section, error) {
	if slices.Contains(workbook.Names(), name) {
		wb, err := workbook.New(name, qf)
		if err != nil {
			return nil, err
		}
		return wb.Quiz, nil
	}
	return qf.Section(name)
}

func (c *CLI) listQuiz(qf quiz.File) {
	var rows [][]string
	for _, name := range qf.Sections() {
		sec, _ := qf.Section(name)
		rows = append(rows, []string{name, strings.Join(sec.Labels(), " ")})
	}
	c.println(renderTable([]string{"Workbook", "Questions"}, rows))
}

func (c *CLI) checkAnswer(sec quiz.Section, label string, n int, answer string) error {
	if label == "" {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "--answer needs a question label")
	}
	qs, err := sec.Questions(label)
	if err != nil {
		return err
	}
	if n < 1 || n > len(qs) {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "%s has %d question(s), not %d", label, len(qs), n)
	}
	q := qs[n-1]
	c.println(StyleTitle.Render(q.Question))
	res := quiz.Check(q, answer)
	if res.Correct {
		c.printSuccess("%s", res.Feedback)
		return nil
	}
	c.printError("%s", res.Feedback)
	return ErrIncorrectAnswer
}

// ErrIncorrectAnswer is returned for a wrong --answer so the process exits
// non-zero. The feedback has already been printed.
var ErrIncorrectAnswer = errors.New("incorrect answer")
