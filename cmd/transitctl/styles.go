package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4"))

	dipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)
)

// field renders one "label value" line.
func field(label, format string, args ...any) string {
	return labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, args...))
}

// panel renders a titled box of lines.
func panel(title string, lines ...string) string {
	return boxStyle.Render(titleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values scaled between lo and hi, one rune per bucket of
// width/len(values) samples. Each bucket shows its minimum so dips survive.
func sparkline(values []float64, lo, hi float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	width = min(width, len(values))
	var b strings.Builder
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := max((i+1)*len(values)/width, start+1)
		v := values[start]
		for _, x := range values[start:end] {
			v = min(v, x)
		}
		idx := len(sparkRunes) - 1
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
			idx = max(0, min(idx, len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
