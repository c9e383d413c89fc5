package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64 // 0..1
	ShowPercent bool
	Width       int

	// Marker, when in (0, 1], draws a tick at that fraction of the bar,
	// e.g. the passing score.
	Marker float64
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// WithMarker returns a copy of p with a tick at fraction m.
func (p ProgressBar) WithMarker(m float64) ProgressBar {
	p.Marker = m
	return p
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := clampCells(int(float64(barWidth)*p.Percent), barWidth)
	marker := -1
	if p.Marker > 0 && p.Marker <= 1 {
		marker = clampCells(int(float64(barWidth)*p.Marker), barWidth-1)
	}

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		style := theme.ProgressEmpty
		if i < filled {
			style = theme.ProgressFilled
		}
		cell := " "
		if i == marker {
			cell = "│"
			style = style.Inherit(theme.ProgressMarker)
		}
		bar.WriteString(style.Render(cell))
	}
	result += bar.String()

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100+0.5)))
	}

	return result
}

func clampCells(n, hi int) int {
	if n > hi {
		return hi
	}
	if n < 0 {
		return 0
	}
	return n
}
