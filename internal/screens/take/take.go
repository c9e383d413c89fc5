// Package take is the player screen that walks a learner through the
// questions of a stored draw.
package take

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/question"
	"github.com/abhisek/quizpool/internal/router"
	"github.com/abhisek/quizpool/internal/screens/results"
	"github.com/abhisek/quizpool/internal/session"
	"github.com/abhisek/quizpool/internal/ui/components"
	"github.com/abhisek/quizpool/internal/ui/layout"
)

// Service is the part of session.Service the screen needs.
type Service interface {
	Resume(ctx context.Context, drawID string) (*attempt.Attempt, error)
	Submit(ctx context.Context, a *attempt.Attempt, questionID string, payload question.Response, startedAt time.Time) (attempt.Response, error)
	Finish(ctx context.Context, a *attempt.Attempt) (*session.Outcome, error)
}

// TakeScreen implements router.Screen for an attempt in progress.
type TakeScreen struct {
	svc    Service
	drawID string

	attempt   *attempt.Attempt
	queue     []question.Question
	index     int
	startedAt time.Time

	useChoices bool
	choices    components.ChoiceList
	input      components.TextInput
	inputErr   string

	last               *attempt.Response
	pending            bool
	finishing          bool
	showingFeedback    bool
	showingQuitConfirm bool
	errMsg             string
}

var _ router.Screen = (*TakeScreen)(nil)
var _ router.KeyHintProvider = (*TakeScreen)(nil)
var _ router.StatusProvider = (*TakeScreen)(nil)

// New creates a TakeScreen for the stored draw drawID.
func New(svc Service, drawID string) *TakeScreen {
	return &TakeScreen{
		svc:    svc,
		drawID: drawID,
		input:  components.NewTextInput("Type your answer...", nil, 200),
	}
}

func (s *TakeScreen) Init() tea.Cmd {
	return s.load()
}

func (s *TakeScreen) Title() string {
	return "Quiz"
}

// Status shows the question position and running correct count.
func (s *TakeScreen) Status() string {
	if s.attempt == nil {
		return ""
	}
	total := len(s.attempt.Draw().Questions)
	pos := total - len(s.queue) + s.index + 1
	if pos > total {
		pos = total
	}
	return fmt.Sprintf("Q %d/%d  ✓ %d", pos, total, s.correctSoFar())
}

func (s *TakeScreen) correctSoFar() int {
	n := 0
	for _, r := range attempt.Final(s.attempt.Draw(), s.attempt.Responses()) {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

func (s *TakeScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Exit"}}
	case s.attempt == nil || s.finishing:
		return nil
	case s.showingQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "Finish now"},
			{Key: "N", Description: "Keep going"},
		}
	case s.showingFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case s.useChoices && s.choices.Multi:
		return []layout.KeyHint{
			{Key: "Space", Description: "Toggle"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Finish"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Finish"},
		{Key: "Ctrl+C", Description: "Pause"},
	}
}

func (s *TakeScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.attempt == nil:
		return renderLoading(width, "Loading your questions...")
	case s.finishing:
		return renderLoading(width, "Scoring your answers...")
	case s.showingQuitConfirm:
		return renderQuitConfirm(width, len(s.queue)-s.index)
	case s.showingFeedback:
		return s.renderFeedback(width)
	}
	return s.renderQuestion(width)
}

func (s *TakeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptLoadedMsg:
		return s.handleLoaded(msg)
	case responseSavedMsg:
		return s.handleSaved(msg)
	case finishedMsg:
		return s.handleFinished(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.active() && !s.useChoices {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// active reports whether a question is waiting for an answer.
func (s *TakeScreen) active() bool {
	return s.attempt != nil && s.errMsg == "" && !s.finishing && !s.pending &&
		!s.showingFeedback && !s.showingQuitConfirm && s.index < len(s.queue)
}

func (s *TakeScreen) current() question.Question {
	return s.queue[s.index]
}

func (s *TakeScreen) load() tea.Cmd {
	svc, drawID := s.svc, s.drawID
	return func() tea.Msg {
		a, err := svc.Resume(context.Background(), drawID)
		return attemptLoadedMsg{Attempt: a, Err: err}
	}
}

func (s *TakeScreen) handleLoaded(msg attemptLoadedMsg) (router.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.attempt = msg.Attempt
	s.queue = msg.Attempt.Remaining()
	s.index = 0
	if len(s.queue) == 0 {
		return s, s.finish()
	}
	return s, s.showQuestion()
}

// showQuestion prepares the input for the current question.
func (s *TakeScreen) showQuestion() tea.Cmd {
	q := s.current()
	s.startedAt = time.Now()
	s.inputErr = ""
	s.last = nil

	if opts, multi, ok := choiceOptions(q); ok {
		s.useChoices = true
		s.choices = components.NewChoiceList(opts, multi)
		return nil
	}

	s.useChoices = false
	var accept func(rune) bool
	if q.Type == question.TypeSlider {
		accept = components.NumericRunes
	}
	s.input = components.NewTextInput(placeholder(q), accept, 200)
	return s.input.Init()
}

func (s *TakeScreen) handleKey(msg tea.KeyPressMsg) (router.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, tea.Quit
	}
	if s.attempt == nil || s.finishing || s.pending {
		return s, nil
	}

	if s.showingQuitConfirm {
		switch key {
		case "y", "Y":
			s.showingQuitConfirm = false
			return s, s.finish()
		case "n", "N", "esc":
			s.showingQuitConfirm = false
		}
		return s, nil
	}

	if s.showingFeedback {
		s.showingFeedback = false
		s.index++
		if s.index >= len(s.queue) {
			return s, s.finish()
		}
		return s, s.showQuestion()
	}

	if key == "esc" {
		s.showingQuitConfirm = true
		return s, nil
	}

	if s.useChoices {
		var cmd tea.Cmd
		s.choices, cmd = s.choices.Update(msg)
		if s.choices.Submitted {
			return s, s.submit(choiceAnswer(s.current(), s.choices.Chosen()))
		}
		return s, cmd
	}

	if key == "enter" {
		answer := s.input.Value()
		if strings.TrimSpace(answer) == "" {
			return s, nil
		}
		return s, s.submit(answer)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit parses input for the current question and hands it to the
// service. Unparseable input stays on the question with a hint.
func (s *TakeScreen) submit(input string) tea.Cmd {
	q := s.current()
	payload, err := question.ParseAnswer(q, input)
	if err != nil {
		s.inputErr = err.Error()
		if s.useChoices {
			s.choices = components.NewChoiceList(s.choices.Options, s.choices.Multi)
		}
		return nil
	}

	s.pending = true
	svc, a, startedAt := s.svc, s.attempt, s.startedAt
	return func() tea.Msg {
		r, err := svc.Submit(context.Background(), a, q.ID, payload, startedAt)
		return responseSavedMsg{Response: r, Err: err}
	}
}

func (s *TakeScreen) handleSaved(msg responseSavedMsg) (router.Screen, tea.Cmd) {
	s.pending = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	r := msg.Response
	s.last = &r
	s.showingFeedback = true
	return s, nil
}

func (s *TakeScreen) finish() tea.Cmd {
	s.finishing = true
	svc, a := s.svc, s.attempt
	return func() tea.Msg {
		out, err := svc.Finish(context.Background(), a)
		return finishedMsg{Outcome: out, Err: err}
	}
}

func (s *TakeScreen) handleFinished(msg finishedMsg) (router.Screen, tea.Cmd) {
	s.finishing = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	var passing *float64
	if p := s.attempt.Pool(); p != nil {
		passing = p.Scoring.PassingScore
	}
	screen := results.New(msg.Outcome, s.attempt.Draw(), passing)
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: screen}
	}
}

// choiceOptions returns the option labels for questions answered by
// picking from a list.
func choiceOptions(q question.Question) (opts []string, multi, ok bool) {
	texts := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		texts[i] = c.Text
	}

	switch q.Type {
	case question.TypeMultipleChoice:
		return texts, false, len(texts) > 0
	case question.TypeMultipleSelect:
		return texts, true, len(texts) > 0
	case question.TypeHotspot:
		k, _ := q.Key.(question.HotspotKey)
		return texts, k.MultiSelect, len(texts) > 0
	case question.TypeTrueFalse:
		return []string{"True", "False"}, false, true
	case question.TypeLikert:
		k, _ := q.Key.(question.LikertKey)
		if k.Scale < 2 {
			return nil, false, false
		}
		labels := make([]string, k.Scale)
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		return labels, false, true
	}
	return nil, false, false
}

// choiceAnswer renders picked indexes in the input syntax ParseAnswer
// reads for q's type.
func choiceAnswer(q question.Question, chosen []int) string {
	switch q.Type {
	case question.TypeTrueFalse:
		if len(chosen) > 0 && chosen[0] == 0 {
			return "true"
		}
		return "false"
	case question.TypeLikert:
		if len(chosen) == 0 {
			return ""
		}
		return strconv.Itoa(chosen[0] + 1)
	}
	parts := make([]string, len(chosen))
	for i, c := range chosen {
		parts[i] = strconv.Itoa(c + 1)
	}
	return strings.Join(parts, ",")
}

func placeholder(q question.Question) string {
	switch q.Type {
	case question.TypeFillInBlank:
		return "One answer per blank, separated by |"
	case question.TypeMatching:
		return "left=right pairs, comma-separated"
	case question.TypeOrdering, question.TypeRanking:
		return "Items in order, comma-separated"
	case question.TypeSlider:
		if k, ok := q.Key.(question.SliderKey); ok {
			return fmt.Sprintf("A number from %g to %g", k.Min, k.Max)
		}
		return "A number"
	case question.TypeMultipleChoice, question.TypeMultipleSelect, question.TypeHotspot:
		return "Choice ids, comma-separated"
	}
	return "Type your answer..."
}
