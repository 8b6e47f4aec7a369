package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/coaldraw/pkg/workbook"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorLime  = lipgloss.Color(workbook.Palette["lime"])
	colorTeal  = lipgloss.Color(workbook.Palette["teal50"])
	colorGrape = lipgloss.Color(workbook.Palette["grape50"])
	colorAmber = lipgloss.Color("220")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorLime)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorLime)
	styleIconError   = lipgloss.NewStyle().Foreground(colorGrape)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorTeal)

	styleCached   = lipgloss.NewStyle().Foreground(colorLime)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorTeal)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) println(s string) { fmt.Fprintln(c.out, s) }

func (c *CLI) printSuccess(format string, args ...any) {
	c.println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	c.println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	c.println(StyleWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printInfo(format string, args ...any) {
	c.println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func (c *CLI) printDetail(format string, args ...any) {
	c.println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func (c *CLI) printFile(path string) {
	c.println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func (c *CLI) printKeyValue(key, value string) {
	c.println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints tree statistics on a single line.
func (c *CLI) printStats(nodes, edges int, cached bool) {
	status := styleComputed.Render("fresh")
	if cached {
		status = styleCached.Render("cached")
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodes)),
		StyleDim.Render(fmt.Sprintf("%d edges", edges)),
		status,
	}
	c.println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep prints a suggested next command.
func (c *CLI) printNextStep(description, cmd string) {
	c.println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
