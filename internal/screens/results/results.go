// Package results is the player screen shown after an attempt is scored.
package results

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/router"
	"github.com/abhisek/quizpool/internal/session"
	"github.com/abhisek/quizpool/internal/ui/components"
	"github.com/abhisek/quizpool/internal/ui/layout"
	"github.com/abhisek/quizpool/internal/ui/theme"
)

// ResultsScreen displays the score, per-question outcome and mastery
// changes of a finished attempt.
type ResultsScreen struct {
	outcome *session.Outcome
	draw    *pool.DrawResult
	passing *float64
}

var _ router.Screen = (*ResultsScreen)(nil)
var _ router.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen. passing is the pool's passing score, nil
// when the pool has none.
func New(outcome *session.Outcome, draw *pool.DrawResult, passing *float64) *ResultsScreen {
	return &ResultsScreen{outcome: outcome, draw: draw, passing: passing}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Done"},
		{Key: "Esc", Description: "Done"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	if s.outcome == nil || s.outcome.Results == nil {
		return ""
	}
	res := s.outcome.Results

	var b strings.Builder

	headline, fg := "Quiz complete!", theme.Primary
	if s.passing != nil {
		if res.Passed {
			headline, fg = "Passed!", theme.Success
		} else {
			headline, fg = "Not passed", theme.Error
		}
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(fg).
		Bold(true).
		Render(headline))
	b.WriteString("\n\n")

	mins := int(res.Duration.Minutes())
	secs := int(res.Duration.Seconds()) % 60
	b.WriteString(layout.Centered(fmt.Sprintf("Duration: %d:%02d", mins, secs), width, theme.TextDim))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("Score: %g/%g        Correct: %d of %d        %.0f%%",
		res.TotalScore, res.MaxScore, res.CorrectCount, res.QuestionCount, res.Percentage)
	b.WriteString(layout.Centered(statsLine, width, theme.Text))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("", res.Percentage/100, true, min(width-8, 60))
	if s.passing != nil {
		bar = bar.WithMarker(*s.passing / 100)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	b.WriteString(s.renderQuestions(width))

	if len(s.outcome.Transitions) > 0 {
		b.WriteString("\n")
		b.WriteString(section("Mastery", width))
		for _, tr := range s.outcome.Transitions {
			line := fmt.Sprintf("  %s %s: %s > %s", tr.Kind, tr.Key, tr.From, tr.To)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(levelColor(tr)).Render(line)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (s *ResultsScreen) renderQuestions(width int) string {
	if s.draw == nil {
		return ""
	}
	final := make(map[string]attempt.Response, len(s.outcome.Results.Responses))
	for _, r := range s.outcome.Results.Responses {
		final[r.QuestionID] = r
	}

	var b strings.Builder
	b.WriteString(section("Questions", width))

	promptWidth := max(min(width-30, 50), 10)
	for i, q := range s.draw.Questions {
		prompt := q.Prompt
		if len([]rune(prompt)) > promptWidth {
			prompt = string([]rune(prompt)[:promptWidth-3]) + "..."
		}

		mark, fg := "-", theme.TextDim
		points := "not answered"
		if r, ok := final[q.ID]; ok {
			points = fmt.Sprintf("%g/%g", r.PointsEarned, q.PointValue())
			switch {
			case r.IsCorrect:
				mark, fg = "✓", theme.Success
			case r.Score > 0:
				mark, fg = "~", theme.Warning
			default:
				mark, fg = "✗", theme.Error
			}
		}

		line := fmt.Sprintf("%s %2d. %-*s  %s", mark, i+1, promptWidth, prompt, points)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(fg).Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func section(name string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(name)) +
		"\n" + layout.Divider(width, 60) + "\n\n"
}

// levelColor colors a transition by the direction the learner moved.
func levelColor(tr mastery.Transition) color.Color {
	switch {
	case tr.To.Rank() > tr.From.Rank():
		return theme.Success
	case tr.To.Rank() < tr.From.Rank():
		return theme.Error
	default:
		return theme.Text
	}
}
