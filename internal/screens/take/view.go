package take

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/question"
	"github.com/abhisek/quizpool/internal/ui/layout"
	"github.com/abhisek/quizpool/internal/ui/theme"
)

// renderQuestion renders the active question display.
func (s *TakeScreen) renderQuestion(width int) string {
	if s.index >= len(s.queue) {
		return renderLoading(width, "Scoring your answers...")
	}
	q := s.current()

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + string(q.Type))

	var meta []string
	if tags := q.UniqueTags(); len(tags) > 0 {
		meta = append(meta, strings.Join(tags, ", "))
	}
	meta = append(meta, fmt.Sprintf("%g pt", q.PointValue()))
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(strings.Join(meta, "  "))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}

	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	promptStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true)
	b.WriteString(promptStyle.Render(q.Prompt))
	b.WriteString("\n\n")

	if s.useChoices {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choices.View()))
		b.WriteString("\n")
		b.WriteString(layout.Centered(s.choices.Hint(), width, theme.TextDim))
	} else {
		if len(q.Choices) > 0 {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderItems(q.Choices)))
			b.WriteString("\n")
		}
		answerLine := lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + s.input.View())
		b.WriteString(answerLine)
	}

	if s.inputErr != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(s.inputErr, width, theme.Error))
	}

	return b.String()
}

func renderItems(choices []question.Choice) string {
	var b strings.Builder
	for i, c := range choices {
		fmt.Fprintf(&b, "%d) %s  (%s)\n", i+1, c.Text, c.ID)
	}
	return lipgloss.NewStyle().Foreground(theme.Text).Render(b.String())
}

// renderFeedback renders the result of the last submission.
func (s *TakeScreen) renderFeedback(width int) string {
	r := s.last
	q := s.current()

	var b strings.Builder
	b.WriteString("\n\n")

	style := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case r == nil:
	case q.Type.IsSurvey():
		b.WriteString(style.Inherit(theme.Recorded).Render("Response recorded"))
	case r.IsCorrect:
		b.WriteString(style.Inherit(theme.Correct).Render("Correct!"))
	case r.Score > 0:
		b.WriteString(style.Inherit(theme.Partial).Render(
			fmt.Sprintf("Partially correct (%.0f%%)", r.Score*100)))
	default:
		b.WriteString(style.Inherit(theme.Incorrect).Render("Not quite"))
	}

	if r != nil && !r.IsCorrect && !q.Type.IsSurvey() {
		if want := correctAnswer(q); want != "" {
			b.WriteString("\n")
			b.WriteString(layout.Centered("Correct answer: "+want, width, theme.TextDim))
		}
	}

	if r != nil && !q.Type.IsSurvey() {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(
			fmt.Sprintf("%g of %g points", r.PointsEarned, q.PointValue()), width, theme.Text))
	}

	b.WriteString("\n\n")
	b.WriteString(layout.Centered("Press any key to continue...", width, theme.TextDim))
	return b.String()
}

// correctAnswer describes q's answer key for display.
func correctAnswer(q question.Question) string {
	texts := func(ids []string) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = q.ChoiceText(id)
		}
		return strings.Join(out, ", ")
	}

	switch k := q.Key.(type) {
	case question.MultipleChoiceKey:
		return q.ChoiceText(k.CorrectID)
	case question.MultipleSelectKey:
		return texts(k.CorrectIDs)
	case question.HotspotKey:
		return texts(k.CorrectIDs)
	case question.OrderingKey:
		return texts(k.Order)
	case question.TrueFalseKey:
		if k.Answer {
			return "True"
		}
		return "False"
	case question.FillInBlankKey:
		parts := make([]string, 0, len(k.Blanks))
		for _, bl := range k.Blanks {
			if len(bl.Accepted) > 0 {
				parts = append(parts, bl.Accepted[0])
			}
		}
		return strings.Join(parts, " | ")
	case question.ShortAnswerKey:
		if len(k.Accepted) > 0 {
			return k.Accepted[0]
		}
	case question.MatchingKey:
		lefts := make([]string, 0, len(k.Pairs))
		for l := range k.Pairs {
			lefts = append(lefts, l)
		}
		sort.Strings(lefts)
		pairs := make([]string, len(lefts))
		for i, l := range lefts {
			pairs[i] = l + "=" + k.Pairs[l]
		}
		return strings.Join(pairs, ", ")
	case question.SliderKey:
		if k.CorrectValue == nil {
			return ""
		}
		if k.Tolerance > 0 {
			return fmt.Sprintf("%g (±%g)", *k.CorrectValue, k.Tolerance)
		}
		return fmt.Sprintf("%g", *k.CorrectValue)
	}
	return ""
}

// renderQuitConfirm renders the finish-early confirmation dialog.
func renderQuitConfirm(width, remaining int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Finish the quiz now?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(
		fmt.Sprintf("%d unanswered question(s) will score zero.", remaining), width, theme.TextDim))
	b.WriteString("\n")
	b.WriteString(layout.Centered(
		"Press Ctrl+C instead to pause and resume later.", width, theme.TextDim))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered("[Y] Yes, finish now", width, theme.Success))
	b.WriteString("\n")
	b.WriteString(layout.Centered("[N] No, keep going", width, theme.Primary))

	return b.String()
}

// renderLoading renders a waiting state.
func renderLoading(width int, msg string) string {
	return layout.Centered("\n\n\n  "+msg, width, theme.TextDim)
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return layout.Centered(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to exit.", errMsg), width, theme.Error)
}
