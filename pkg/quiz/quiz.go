// Package quiz loads workshop quizzes and checks answers.
//
// A quiz file is YAML mapping a section name (one per workbook) to labelled
// question groups:
//
//	CoalescentHandson:
//	  Q1:
//	    - question: How many coalescent events are there?
//	      type: numeric
//	      answers:
//	        - type: value
//	          value: 3
//	          correct: true
//	          feedback: Right, n-1 for n samples.
//	        - type: default
//	          feedback: Count the internal nodes.
//
// Question types are multiple_choice, many_choice and numeric.
package quiz

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
)

// Type is a question type.
type Type string

// Question types.
const (
	MultipleChoice Type = "multiple_choice"
	ManyChoice     Type = "many_choice"
	Numeric        Type = "numeric"
)

// Numeric answer kinds.
const (
	AnswerValue   = "value"
	AnswerRange   = "range"
	AnswerDefault = "default"
)

// Question is one question with its possible answers.
type Question struct {
	Question  string   `yaml:"question" json:"question"`
	Type      Type     `yaml:"type" json:"type"`
	Answers   []Answer `yaml:"answers" json:"answers"`
	Precision int      `yaml:"precision,omitempty" json:"precision,omitempty"`
}

// Answer is a choice (for choice questions) or a matcher (for numeric ones).
type Answer struct {
	Answer   string    `yaml:"answer,omitempty" json:"answer,omitempty"`
	Correct  bool      `yaml:"correct" json:"correct"`
	Feedback string    `yaml:"feedback,omitempty" json:"feedback,omitempty"`
	Type     string    `yaml:"type,omitempty" json:"type,omitempty"`
	Value    *float64  `yaml:"value,omitempty" json:"value,omitempty"`
	Range    []float64 `yaml:"range,omitempty" json:"range,omitempty"`
}

// Section holds the question groups of one workbook, keyed by label.
type Section map[string][]Question

// File is a parsed quiz file.
type File map[string]Section

//go:embed quiz.yaml
var builtin []byte

// Default returns the built-in workshop quiz.
func Default() (File, error) {
	return Parse(builtin)
}

// Load reads and validates a quiz file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "quiz file %s", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates quiz YAML.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "parse quiz")
	}
	for name, sec := range f {
		for label, qs := range sec {
			for i, q := range qs {
				if err := q.validate(); err != nil {
					return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "%s/%s[%d]", name, label, i)
				}
			}
		}
	}
	return f, nil
}

// Section returns a copy of the named section, so callers may adjust
// answers without affecting other users of f.
func (f File) Section(name string) (Section, error) {
	sec, ok := f[name]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeQuizNotFound, "no quiz section %q", name)
	}
	return sec.Clone(), nil
}

// Sections returns the section names in sorted order.
func (f File) Sections() []string {
	return slices.Sorted(maps.Keys(f))
}

// Labels returns the question labels in sorted order.
func (s Section) Labels() []string {
	return slices.Sorted(maps.Keys(s))
}

// Questions returns the question group with the given label.
func (s Section) Questions(label string) ([]Question, error) {
	qs, ok := s[label]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeQuizNotFound, "no question %q", label)
	}
	return qs, nil
}

// Clone returns a deep copy.
func (s Section) Clone() Section {
	out := make(Section, len(s))
	for label, qs := range s {
		cp := make([]Question, len(qs))
		for i, q := range qs {
			cp[i] = q
			cp[i].Answers = make([]Answer, len(q.Answers))
			for j, a := range q.Answers {
				if a.Value != nil {
					v := *a.Value
					a.Value = &v
				}
				a.Range = slices.Clone(a.Range)
				cp[i].Answers[j] = a
			}
		}
		out[label] = cp
	}
	return out
}

func (q Question) validate() error {
	if len(q.Answers) == 0 {
		return fmt.Errorf("question %q has no answers", q.Question)
	}
	switch q.Type {
	case MultipleChoice, ManyChoice:
		return nil
	case Numeric:
		for _, a := range q.Answers {
			switch a.Type {
			case AnswerValue:
				if a.Value == nil {
					return fmt.Errorf("value answer without value")
				}
			case AnswerRange:
				if len(a.Range) != 2 || a.Range[0] > a.Range[1] {
					return fmt.Errorf("range answer needs [low, high], got %v", a.Range)
				}
			case AnswerDefault:
			default:
				return fmt.Errorf("unknown numeric answer type %q", a.Type)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
}
