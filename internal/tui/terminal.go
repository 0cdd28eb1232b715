package tui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	emphasisStyle = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true).Reverse(true)
)

func init() {
	if !IsTerminal(os.Stderr) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintError writes a single styled error line.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("error:"), err)
}

// Emphasize highlights s without changing its width.
func Emphasize(s string) string {
	return emphasisStyle.Render(s)
}

// StartSpinner shows an animated spinner with suffix on w and returns the
// function that stops it.
func StartSpinner(w io.Writer, suffix string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
