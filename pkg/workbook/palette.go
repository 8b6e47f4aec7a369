package workbook

// SciLifeLab brand colours.
var Palette = map[string]string{
	"lime":       "#a7c947",
	"lime25":     "#e9f2d1",
	"lime50":     "#d3e4a3",
	"lime75":     "#bdd775",
	"teal":       "#045c64",
	"teal25":     "#c0d6d8",
	"teal50":     "#82aeb2",
	"teal75":     "#43858b",
	"aqua":       "#4c979f",
	"aqua25":     "#d2e5e7",
	"aqua50":     "#a6cbcf",
	"aqua75":     "#79b1b7",
	"grape":      "#491f53",
	"grape25":    "#d2c7d4",
	"grape50":    "#a48fa9",
	"grape75":    "#77577e",
	"lightgray":  "#e5e5e5",
	"mediumgray": "#a6a6a6",
	"darkgray":   "#3f3f3f",
	"black":      "#202020",
}

// QuizColors assigns palette colours to the parts of a rendered quiz.
type QuizColors struct {
	MultipleChoiceBG   string // question area of multiple-choice questions
	ButtonBG           string // unpressed answer buttons
	ButtonBorder       string
	ButtonInsetShadow  string // pressed answer buttons
	ManyChoiceBG       string
	NumericBG          string
	NumericInputBG     string
	NumericInputLabel  string
	NumericInputShadow string
	Incorrect          string
	Correct            string
	Text               string
}

// DefaultQuizColors is the workshop quiz theme.
var DefaultQuizColors = QuizColors{
	MultipleChoiceBG:   Palette["lime"],
	ButtonBG:           Palette["teal25"],
	ButtonBorder:       Palette["teal50"],
	ButtonInsetShadow:  Palette["teal75"],
	ManyChoiceBG:       Palette["teal25"],
	NumericBG:          Palette["lime"],
	NumericInputBG:     Palette["lime75"],
	NumericInputLabel:  Palette["lime"],
	NumericInputShadow: Palette["lime75"],
	Incorrect:          Palette["grape"],
	Correct:            Palette["teal50"],
	Text:               Palette["lime25"],
}

// CSSVariables renders the theme as the CSS custom properties understood by
// the notebook quiz widget.
func (c QuizColors) CSSVariables() map[string]string {
	return map[string]string{
		"--jq-multiple-choice-bg":     c.MultipleChoiceBG,
		"--jq-mc-button-bg":           c.ButtonBG,
		"--jq-mc-button-border":       c.ButtonBorder,
		"--jq-mc-button-inset-shadow": c.ButtonInsetShadow,
		"--jq-many-choice-bg":         c.ManyChoiceBG,
		"--jq-numeric-bg":             c.NumericBG,
		"--jq-numeric-input-bg":       c.NumericInputBG,
		"--jq-numeric-input-label":    c.NumericInputLabel,
		"--jq-numeric-input-shadow":   c.NumericInputShadow,
		"--jq-incorrect-color":        c.Incorrect,
		"--jq-correct-color":          c.Correct,
		"--jq-text-color":             c.Text,
	}
}
