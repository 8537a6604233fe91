package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Colour palette shared by every command.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

type cliStyles struct {
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	SourceTag  lipgloss.Style
	Disclaimer lipgloss.Style
}

var styles = cliStyles{
	Title:      lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
	Muted:      lipgloss.NewStyle().Foreground(colourMuted),
	Success:    lipgloss.NewStyle().Foreground(colourSuccess),
	Warning:    lipgloss.NewStyle().Foreground(colourWarning),
	Error:      lipgloss.NewStyle().Foreground(colourError),
	SourceTag:  lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
	Disclaimer: lipgloss.NewStyle().Italic(true).Foreground(colourWarning),
}

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 100

// terminalWidth returns the usable width for wrapped answer text.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 20 {
		return defaultWidth
	}
	return w - 2
}

// wrap renders text within the terminal width.
func wrap(text string) string {
	return lipgloss.NewStyle().Width(terminalWidth()).Render(text)
}
