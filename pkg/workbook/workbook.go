// Package workbook bundles the quiz questions and figures of each workshop
// notebook.
//
//	qf, _ := quiz.Default()
//	wb, err := workbook.New("CoalescentHandson", qf)
//	qs, err := wb.Question("Q1")
//	fig, err := wb.Draw("coalescent_tree")
package workbook

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
	"github.com/matzehuels/coaldraw/pkg/workbook/figures"
)

// Workbook names.
const (
	HOWTOName             = "HOWTO"
	WrightFisherName      = "WrightFisher"
	CoalescentHandsonName = "CoalescentHandson"
)

// SmallClass is the SVG class that shrinks symbols and labels in dense
// figures; SmallStyle holds its rules.
const (
	SmallClass = "x-lab-sml"
	SmallStyle = ".x-lab-sml .sym {transform:scale(0.6)} " +
		".x-lab-sml .lab {font-size:7pt;}" +
		".x-lab-sml .x-axis .tick .lab {" +
		"font-weight:normal;transform:rotate(90deg);text-anchor:start;dominant-baseline:central;}"
)

// CSS is the stylesheet shared by all workbooks.
//
//go:embed custom.css
var CSS string

const readyText = `<table style="width: 100%;"><tr>
<td style="text-align: left;">Your notebook is ready to go!</td>
</tr>
</table>`

// Workbook is one notebook: its quiz section and the figures it can draw.
type Workbook struct {
	Name    string
	Quiz    quiz.Section
	Figures []string
}

// Option configures workbook construction.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for date-dependent questions.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

var constructors = map[string]func(quiz.File, ...Option) (*Workbook, error){
	HOWTOName:             HOWTO,
	WrightFisherName:      WrightFisher,
	CoalescentHandsonName: CoalescentHandson,
}

// Names lists the known workbooks.
func Names() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// New builds the named workbook.
func New(name string, qf quiz.File, opts ...Option) (*Workbook, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeNotFound, "no workbook %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(qf, opts...)
}

func newWorkbook(name string, qf quiz.File, figs ...string) (*Workbook, error) {
	sec, err := qf.Section(name)
	if err != nil {
		return nil, err
	}
	return &Workbook{Name: name, Quiz: sec, Figures: figs}, nil
}

// HOWTO is the introductory notebook. Its second question asks for today's
// day of the month, so the expected answer is filled in from the clock.
func HOWTO(qf quiz.File, opts ...Option) (*Workbook, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	wb, err := newWorkbook(HOWTOName, qf)
	if err != nil {
		return nil, err
	}
	qs, err := wb.Quiz.Questions("Q2")
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 || len(qs[0].Answers) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "HOWTO Q2 has no answers")
	}
	day := float64(o.now().Day())
	qs[0].Answers[0].Value = &day
	return wb, nil
}

// WrightFisher is the Wright-Fisher model notebook.
func WrightFisher(qf quiz.File, _ ...Option) (*Workbook, error) {
	return newWorkbook(WrightFisherName, qf)
}

// CoalescentHandson is the coalescent exercise notebook.
func CoalescentHandson(qf quiz.File, _ ...Option) (*Workbook, error) {
	return newWorkbook(CoalescentHandsonName, qf, figures.CoalescentTreeName, figures.CoalescentPlotName)
}

// Question returns the questions under label.
func (w *Workbook) Question(label string) ([]quiz.Question, error) {
	return w.Quiz.Questions(label)
}

// Draw returns one of the workbook's figures.
func (w *Workbook) Draw(which string) (*scene.Scene, error) {
	if !slices.Contains(w.Figures, which) {
		return nil, cerrors.New(cerrors.ErrCodeFigureNotFound, "workbook %s has no figure %q", w.Name, which)
	}
	return figures.Lookup(which)
}

// Setup returns the HTML snippet shown at the top of a notebook: the shared
// stylesheet and the ready banner.
func (w *Workbook) Setup() string {
	return fmt.Sprintf("<style>%s\n%s</style>%s", CSS, SmallStyle, readyText)
}
