// Package layout renders the player's frame: header bar, footer key hints
// and the content area between them.
package layout

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf("Terminal too small: %d x %d\n\nThe quiz needs at least %d x %d.",
			width, height, MinWidth, MinHeight))
}

// bar boxes content in the header/footer style.
func bar(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderHeader renders the product name on the left, the screen title
// centered and an optional status on the right.
func RenderHeader(title, status string, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  QuizPool")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := ""
	if status != "" {
		right = lipgloss.NewStyle().Foreground(theme.Accent).Render(status + "  ")
	}

	inner := max(width-4, 0)
	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(right), 1)

	return bar(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

// RenderFooter renders the key hints.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
	}
	return bar("  "+strings.Join(parts, "   "), width)
}

// RenderFrame stacks header, content and footer, giving the content
// whatever height remains.
func RenderFrame(header, content, footer string, width, height int) string {
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Centered renders s across width with the given foreground.
func Centered(s string, width int, fg color.Color) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(fg).
		Render(s)
}

// Divider renders a centered horizontal rule at most limit cells wide.
func Divider(width, limit int) string {
	n := min(width-8, limit)
	n = max(n, 0)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", n)))
}
