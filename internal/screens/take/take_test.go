package take

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/question"
	"github.com/abhisek/quizpool/internal/router"
	"github.com/abhisek/quizpool/internal/session"
)

// fakeService grades in memory without a store.
type fakeService struct {
	draw      *pool.DrawResult
	prior     []attempt.Response
	loadErr   error
	submitted []attempt.Response
	finished  bool
}

func (f *fakeService) Resume(_ context.Context, _ string) (*attempt.Attempt, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return attempt.Resume(f.draw, nil, f.prior), nil
}

func (f *fakeService) Submit(_ context.Context, a *attempt.Attempt, questionID string, payload question.Response, startedAt time.Time) (attempt.Response, error) {
	r, err := a.Submit(questionID, payload, startedAt, time.Now())
	if err == nil {
		f.submitted = append(f.submitted, r)
	}
	return r, err
}

func (f *fakeService) Finish(_ context.Context, a *attempt.Attempt) (*session.Outcome, error) {
	f.finished = true
	return &session.Outcome{Results: a.Results()}, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testDraw() *pool.DrawResult {
	return &pool.DrawResult{
		ID:     "d1",
		PoolID: "arith",
		Questions: []question.Question{
			{
				ID:      "q1",
				Type:    question.TypeMultipleChoice,
				Prompt:  "What is 2 + 2?",
				Choices: []question.Choice{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
				Key:     question.MultipleChoiceKey{CorrectID: "b"},
			},
			{
				ID:     "q2",
				Type:   question.TypeShortAnswer,
				Prompt: "Solve 2x = 6",
				Key:    question.ShortAnswerKey{Accepted: []string{"3"}},
			},
		},
	}
}

func newLoaded(t *testing.T, svc *fakeService) *TakeScreen {
	t.Helper()
	s := New(svc, svc.draw.ID)
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected Init to load the attempt")
	}
	s.Update(cmd())
	return s
}

// run executes cmd and feeds its message back into s.
func run(t *testing.T, s *TakeScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := s.Update(cmd())
	return next
}

func TestTakeScreen_FullFlow(t *testing.T) {
	svc := &fakeService{draw: testDraw()}
	s := newLoaded(t, svc)

	if !strings.Contains(s.View(100, 30), "What is 2 + 2?") {
		t.Fatal("expected first question on screen")
	}
	if got := s.Status(); got != "Q 1/2  ✓ 0" {
		t.Errorf("Status = %q", got)
	}

	_, cmd := s.Update(keyPress('2'))
	run(t, s, cmd)
	if !s.showingFeedback {
		t.Fatal("expected feedback after submitting")
	}
	if !strings.Contains(s.View(100, 30), "Correct!") {
		t.Error("expected Correct! feedback")
	}
	if got := s.Status(); got != "Q 1/2  ✓ 1" {
		t.Errorf("Status = %q", got)
	}

	s.Update(keyPress(' '))
	if !strings.Contains(s.View(100, 30), "Solve 2x = 6") {
		t.Fatal("expected second question after dismissing feedback")
	}

	s.Update(keyPress('4'))
	_, cmd = s.Update(specialKey(tea.KeyEnter))
	run(t, s, cmd)
	view := s.View(100, 30)
	if !strings.Contains(view, "Not quite") || !strings.Contains(view, "Correct answer: 3") {
		t.Errorf("expected wrong-answer feedback, got:\n%s", view)
	}

	_, cmd = s.Update(keyPress('x'))
	if !s.finishing {
		t.Fatal("expected finishing after the last question")
	}
	next := run(t, s, cmd)
	if next == nil {
		t.Fatal("expected navigation to results")
	}
	replace, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", next())
	}
	if replace.Screen.Title() != "Results" {
		t.Errorf("replaced with %q", replace.Screen.Title())
	}

	if !svc.finished {
		t.Error("expected Finish to be called")
	}
	if len(svc.submitted) != 2 {
		t.Errorf("submitted %d responses, want 2", len(svc.submitted))
	}
}

func TestTakeScreen_EmptyAnswerIgnored(t *testing.T) {
	svc := &fakeService{draw: testDraw(), prior: []attempt.Response{{QuestionID: "q1", AttemptNumber: 1}}}
	s := newLoaded(t, svc)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil || s.pending {
		t.Error("expected empty input to be ignored")
	}
}

func TestTakeScreen_ResumeSkipsAnswered(t *testing.T) {
	svc := &fakeService{draw: testDraw(), prior: []attempt.Response{{QuestionID: "q1", AttemptNumber: 1, IsCorrect: true}}}
	s := newLoaded(t, svc)

	if got := s.Status(); got != "Q 2/2  ✓ 1" {
		t.Errorf("Status = %q", got)
	}
	if !strings.Contains(s.View(100, 30), "Solve 2x = 6") {
		t.Error("expected to resume at the unanswered question")
	}
}

func TestTakeScreen_AllAnsweredFinishesImmediately(t *testing.T) {
	svc := &fakeService{draw: testDraw(), prior: []attempt.Response{
		{QuestionID: "q1", AttemptNumber: 1},
		{QuestionID: "q2", AttemptNumber: 1},
	}}
	s := New(svc, "d1")
	_, cmd := s.Update(s.Init()())
	if !s.finishing {
		t.Fatal("expected finishing state")
	}
	run(t, s, cmd)
	if !svc.finished {
		t.Error("expected Finish to be called")
	}
}

func TestTakeScreen_QuitConfirm(t *testing.T) {
	svc := &fakeService{draw: testDraw()}
	s := newLoaded(t, svc)

	s.Update(specialKey(tea.KeyEscape))
	if !s.showingQuitConfirm {
		t.Fatal("expected quit confirm on Esc")
	}
	if !strings.Contains(s.View(100, 30), "2 unanswered question(s)") {
		t.Error("expected unanswered count in dialog")
	}

	s.Update(keyPress('n'))
	if s.showingQuitConfirm {
		t.Fatal("expected N to dismiss the dialog")
	}

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(keyPress('y'))
	if !s.finishing || cmd == nil {
		t.Fatal("expected Y to finish the attempt")
	}
}

func TestTakeScreen_UnparseableInput(t *testing.T) {
	d := &pool.DrawResult{
		ID: "d2",
		Questions: []question.Question{{
			ID:     "m1",
			Type:   question.TypeMatching,
			Prompt: "Match capitals",
			Key:    question.MatchingKey{Pairs: map[string]string{"france": "paris"}},
		}},
	}
	svc := &fakeService{draw: d}
	s := newLoaded(t, svc)

	for _, r := range "paris" {
		s.Update(keyPress(r))
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Fatal("expected no submission for unparseable input")
	}
	if !strings.Contains(s.View(100, 30), "expected left=right") {
		t.Error("expected parse hint on screen")
	}
	if len(svc.submitted) != 0 {
		t.Error("nothing should be submitted")
	}
}

func TestTakeScreen_LoadError(t *testing.T) {
	svc := &fakeService{draw: testDraw(), loadErr: errors.New("draw not found")}
	s := newLoaded(t, svc)

	if !strings.Contains(s.View(100, 30), "draw not found") {
		t.Error("expected error on screen")
	}
	if _, cmd := s.Update(keyPress('x')); cmd == nil {
		t.Error("expected any key to quit")
	}
}

func TestChoiceAnswer(t *testing.T) {
	tf := question.Question{Type: question.TypeTrueFalse}
	likert := question.Question{Type: question.TypeLikert, Key: question.LikertKey{Scale: 5}}
	ms := question.Question{Type: question.TypeMultipleSelect}

	tests := []struct {
		name   string
		q      question.Question
		chosen []int
		want   string
	}{
		{"true", tf, []int{0}, "true"},
		{"false", tf, []int{1}, "false"},
		{"likert", likert, []int{3}, "4"},
		{"multi", ms, []int{0, 2}, "1,3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := choiceAnswer(tt.q, tt.chosen); got != tt.want {
				t.Errorf("choiceAnswer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChoiceOptions(t *testing.T) {
	q := question.Question{Type: question.TypeHotspot, Choices: []question.Choice{{ID: "s1", Text: "Top"}}, Key: question.HotspotKey{MultiSelect: true}}
	opts, multi, ok := choiceOptions(q)
	if !ok || !multi || len(opts) != 1 {
		t.Errorf("hotspot options = %v, %v, %v", opts, multi, ok)
	}

	if _, _, ok := choiceOptions(question.Question{Type: question.TypeMultipleChoice}); ok {
		t.Error("multiple-choice without choices should fall back to text input")
	}
}
