package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"imgoptim/internal/runner"
	"imgoptim/pkg/sizefmt"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)

// RenderSummary boxes the counters of a finished run together with the
// aggregate savings line of the report.
func RenderSummary(s runner.Summary, f sizefmt.Formatter) string {
	failed := valueStyle.Render(fmt.Sprint(s.Failed))
	if s.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprint(s.Failed))
	}

	rows := []struct {
		label string
		value string
	}{
		{"Files", valueStyle.Render(fmt.Sprint(s.Files))},
		{"Optimized", valueStyle.Render(fmt.Sprint(s.Optimized))},
		{"Failed", failed},
		{"Total", savedStyle.Render(runner.Savings(f, s.SrcSize, s.DstSize))},
	}

	labelWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.label))
	}

	lines := []string{titleStyle.Render("imgoptim summary")}
	for _, row := range rows {
		label := labelStyle.Width(labelWidth + 2).Render(row.label)
		lines = append(lines, label+row.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
