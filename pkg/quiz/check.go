package quiz

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Result is the outcome of checking one answer.
type Result struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`

	// Selected holds the zero-based indices of the matched answers.
	Selected []int `json:"selected,omitempty"`
}

// Check compares a learner's input against q.
//
// Input rules:
//   - multiple_choice: the answer text (case-insensitive), or a 1-based
//     answer index when no answer has that text
//   - many_choice: comma-separated 1-based indices; correct when exactly the
//     correct answers are selected
//   - numeric: a number, matched against value and range answers in order,
//     falling back to the default answer
//
// Unparseable input yields an incorrect result with a hint as feedback.
func Check(q Question, input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{Feedback: "No answer given."}
	}
	switch q.Type {
	case MultipleChoice:
		return checkMultipleChoice(q, input)
	case ManyChoice:
		return checkManyChoice(q, input)
	case Numeric:
		return checkNumeric(q, input)
	}
	return Result{Feedback: "Unsupported question type."}
}

func checkMultipleChoice(q Question, input string) Result {
	// answer text wins over position, so "3" picks the choice "3"
	idx := slices.IndexFunc(q.Answers, func(a Answer) bool {
		return strings.EqualFold(strings.TrimSpace(a.Answer), input)
	})
	if n, err := strconv.Atoi(input); idx < 0 && err == nil && n >= 1 && n <= len(q.Answers) {
		idx = n - 1
	}
	if idx < 0 {
		return Result{Feedback: "Pick one of the listed answers."}
	}
	a := q.Answers[idx]
	return Result{Correct: a.Correct, Feedback: feedback(a), Selected: []int{idx}}
}

func checkManyChoice(q Question, input string) Result {
	var selected []int
	for _, f := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(q.Answers) {
			return Result{Feedback: "Give answer numbers separated by commas."}
		}
		if !slices.Contains(selected, n-1) {
			selected = append(selected, n-1)
		}
	}
	slices.Sort(selected)

	var want []int
	for i, a := range q.Answers {
		if a.Correct {
			want = append(want, i)
		}
	}
	res := Result{Correct: slices.Equal(selected, want), Selected: selected}
	switch {
	case res.Correct:
		res.Feedback = "Correct!"
	default:
		for _, i := range selected {
			if !q.Answers[i].Correct {
				res.Feedback = feedback(q.Answers[i])
				return res
			}
		}
		res.Feedback = "Some correct answers are missing."
	}
	return res
}

func checkNumeric(q Question, input string) Result {
	x, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(x) {
		return Result{Feedback: "Enter a number."}
	}
	x = roundSignificant(x, q.Precision)

	fallback := -1
	for i, a := range q.Answers {
		switch a.Type {
		case AnswerValue:
			if a.Value != nil && x == roundSignificant(*a.Value, q.Precision) {
				return Result{Correct: a.Correct, Feedback: feedback(a), Selected: []int{i}}
			}
		case AnswerRange:
			if len(a.Range) == 2 && x >= a.Range[0] && x <= a.Range[1] {
				return Result{Correct: a.Correct, Feedback: feedback(a), Selected: []int{i}}
			}
		case AnswerDefault:
			if fallback < 0 {
				fallback = i
			}
		}
	}
	if fallback >= 0 {
		a := q.Answers[fallback]
		return Result{Correct: a.Correct, Feedback: feedback(a), Selected: []int{fallback}}
	}
	return Result{Feedback: "Incorrect."}
}

// roundSignificant rounds x to the given number of significant digits.
// Non-positive precision leaves x unchanged.
func roundSignificant(x float64, digits int) float64 {
	if digits <= 0 || x == 0 || math.IsInf(x, 0) {
		return x
	}
	f, err := strconv.ParseFloat(strconv.FormatFloat(x, 'g', digits, 64), 64)
	if err != nil {
		return x
	}
	return f
}

func feedback(a Answer) string {
	if a.Feedback != "" {
		return a.Feedback
	}
	if a.Correct {
		return "Correct!"
	}
	return "Incorrect."
}
