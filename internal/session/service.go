// Package session coordinates a learner's pass through a pool: drawing
// questions, recording graded responses, and finishing with a results
// record and a mastery update.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/question"
	"github.com/abhisek/quizpool/internal/store"
	"github.com/abhisek/quizpool/internal/xapi"
)

// ErrFinished is returned when a draw's results were already recorded.
var ErrFinished = store.ErrFinished

// maxMasteryRetries bounds the read-modify-write loop on ErrConflict.
const maxMasteryRetries = 5

// Service wires the store, the pure domain packages and the LRS.
type Service struct {
	Banks   store.BankRepo
	Pools   store.PoolRepo
	Draws   store.DrawRepo
	Mastery store.MasteryRepo
	Events  store.EventRepo

	LRS        xapi.Sender
	Statements xapi.Builder

	// Warn receives non-fatal failures. nil means stderr.
	Warn io.Writer

	// Now is the service clock. nil means time.Now.
	Now func() time.Time
}

// NewService creates a Service backed by st. A nil lrs disables
// statement delivery.
func NewService(st *store.Store, lrs xapi.Sender, statements xapi.Builder) *Service {
	if lrs == nil {
		lrs = xapi.Noop{}
	}
	return &Service{
		Banks:      st.BankRepo(),
		Pools:      st.PoolRepo(),
		Draws:      st.DrawRepo(),
		Mastery:    st.MasteryRepo(),
		Events:     st.EventRepo(),
		LRS:        lrs,
		Statements: statements,
	}
}

// Outcome is what Finish reports back to the caller.
type Outcome struct {
	Results     *attempt.PoolResults
	Before      *mastery.LearnerMastery
	After       *mastery.LearnerMastery
	Transitions []mastery.Transition
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) warn(format string, args ...any) {
	w := s.Warn
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "warning: "+format+"\n", args...)
}

func (s *Service) send(ctx context.Context, statements ...xapi.Statement) {
	if s.LRS == nil || len(statements) == 0 {
		return
	}
	if err := s.LRS.Send(ctx, statements...); err != nil {
		s.warn("failed to send %d xAPI statement(s): %v", len(statements), err)
	}
}

// Draw realizes a new draw of poolID for learnerID and persists it. When
// the pool weights by mastery, the learner's stored mastery biases the
// selection. A nil seed draws with a fresh one.
func (s *Service) Draw(ctx context.Context, poolID, learnerID string, seed *uint64) (*pool.DrawResult, error) {
	p, err := s.Pools.Get(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("load pool %q: %w", poolID, err)
	}
	banks, err := store.LoadBanks(ctx, s.Banks, p)
	if err != nil {
		return nil, err
	}

	var m *mastery.LearnerMastery
	if p.WeightByMastery && learnerID != "" {
		if m, err = s.Mastery.Get(ctx, learnerID); err != nil {
			return nil, fmt.Errorf("load mastery: %w", err)
		}
	}

	d, err := pool.Draw(banks, p, pool.DrawOptions{
		Mastery:   m,
		Seed:      seed,
		LearnerID: learnerID,
		Now:       s.now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Draws.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draw: %w", err)
	}

	ids := make([]string, len(d.Questions))
	for i, q := range d.Questions {
		ids[i] = q.ID
	}
	if err := s.Events.AppendDraw(ctx, store.DrawEventData{
		DrawID:      d.ID,
		PoolID:      d.PoolID,
		LearnerID:   learnerID,
		Seed:        d.Seed,
		QuestionIDs: ids,
		Weighted:    m != nil,
	}); err != nil {
		s.warn("failed to log draw event: %v", err)
	}
	s.send(ctx, s.Statements.DrawStatement(d, p))
	return d, nil
}

// Resume loads a stored draw with the responses recorded so far. The
// draw's pool supplies scoring overrides; if it has since been deleted
// the draw is graded with each question's own modes. A finished draw
// cannot be resumed.
func (s *Service) Resume(ctx context.Context, drawID string) (*attempt.Attempt, error) {
	d, err := s.Draws.Get(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("load draw %q: %w", drawID, err)
	}
	if err := s.checkOpen(ctx, drawID); err != nil {
		return nil, err
	}
	p, err := s.Pools.Get(ctx, d.PoolID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.warn("pool %q no longer exists, grading without pool scoring", d.PoolID)
		p = nil
	case err != nil:
		return nil, fmt.Errorf("load pool %q: %w", d.PoolID, err)
	}
	prior, err := s.Draws.Responses(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	return attempt.Resume(d, p, prior), nil
}

// Submit grades payload within a, then records the response.
func (s *Service) Submit(ctx context.Context, a *attempt.Attempt, questionID string, payload question.Response, startedAt time.Time) (attempt.Response, error) {
	r, err := a.Submit(questionID, payload, startedAt, s.now())
	if err != nil {
		return attempt.Response{}, err
	}
	if err := s.Record(ctx, a.Draw(), r); err != nil {
		return r, err
	}
	return r, nil
}

// Record persists one graded response and reports it.
func (s *Service) Record(ctx context.Context, d *pool.DrawResult, r attempt.Response) error {
	if err := s.Draws.AppendResponse(ctx, d.ID, r); err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	if err := s.Events.AppendResponse(ctx, store.ResponseEventData{
		DrawID:        d.ID,
		LearnerID:     d.LearnerID,
		QuestionID:    r.QuestionID,
		AttemptNumber: r.AttemptNumber,
		Correct:       r.IsCorrect,
		Score:         r.Score,
		DurationMs:    r.Duration.Milliseconds(),
	}); err != nil {
		s.warn("failed to log response event: %v", err)
	}
	s.send(ctx, s.Statements.ResponseStatement(d, r))
	return nil
}

// Finish aggregates a's responses, folds the final answers into the
// learner's mastery and records the result. A draw can be finished once:
// it is marked finished before mastery is touched, and reopened if the
// mastery update fails.
func (s *Service) Finish(ctx context.Context, a *attempt.Attempt) (*Outcome, error) {
	d := a.Draw()
	if err := s.Draws.Finish(ctx, d.ID, s.now()); err != nil {
		return nil, err
	}

	out := &Outcome{Results: a.Results()}
	if d.LearnerID != "" {
		before, after, err := s.updateMastery(ctx, d.LearnerID, outcomes(d, out.Results.Responses))
		if err != nil {
			if rerr := s.Draws.Reopen(ctx, d.ID); rerr != nil {
				s.warn("failed to reopen draw %s: %v", d.ID, rerr)
			}
			return nil, err
		}
		out.Before, out.After = before, after
		out.Transitions = mastery.Transitions(before, after)
	}

	res := out.Results
	if err := s.Events.AppendResult(ctx, store.ResultEventData{
		DrawID:       d.ID,
		PoolID:       d.PoolID,
		LearnerID:    d.LearnerID,
		TotalScore:   res.TotalScore,
		MaxScore:     res.MaxScore,
		Percentage:   res.Percentage,
		Passed:       res.Passed,
		CorrectCount: res.CorrectCount,
	}); err != nil {
		s.warn("failed to log result event: %v", err)
	}

	statements := []xapi.Statement{s.Statements.ResultStatement(d, res)}
	for _, tr := range out.Transitions {
		score := transitionScore(out.After, tr)
		if err := s.Events.AppendMastery(ctx, store.MasteryEventData{
			LearnerID: d.LearnerID,
			DrawID:    d.ID,
			Scope:     tr.Kind,
			Key:       tr.Key,
			FromLevel: string(tr.From),
			ToLevel:   string(tr.To),
			Score:     score,
		}); err != nil {
			s.warn("failed to log mastery event: %v", err)
		}
		statements = append(statements, s.Statements.MasteryStatement(d.LearnerID, d.ID, tr, score))
	}
	s.send(ctx, statements...)
	return out, nil
}

// checkOpen returns ErrFinished once drawID has been finished.
func (s *Service) checkOpen(ctx context.Context, drawID string) error {
	at, err := s.Draws.FinishedAt(ctx, drawID)
	if err != nil {
		return fmt.Errorf("check draw %q: %w", drawID, err)
	}
	if !at.IsZero() {
		return fmt.Errorf("%w: %s at %s", ErrFinished, drawID, at.Format(time.RFC3339))
	}
	return nil
}

// updateMastery applies outcomes with optimistic concurrency, re-reading
// and re-applying when another writer got there first.
func (s *Service) updateMastery(ctx context.Context, learnerID string, outcomes []mastery.Outcome) (before, after *mastery.LearnerMastery, err error) {
	for i := 0; ; i++ {
		cur, err := s.Mastery.Get(ctx, learnerID)
		if err != nil {
			return nil, nil, fmt.Errorf("load mastery: %w", err)
		}
		next := mastery.Apply(cur, outcomes)
		next.LearnerID = learnerID
		next.UpdatedAt = s.now()

		err = s.Mastery.Save(ctx, next)
		if err == nil {
			return cur, next, nil
		}
		if !errors.Is(err, store.ErrConflict) || i+1 >= maxMasteryRetries {
			return nil, nil, fmt.Errorf("save mastery: %w", err)
		}
	}
}

// outcomes maps final responses to mastery outcomes. Survey questions
// carry no signal about proficiency and are left out.
func outcomes(d *pool.DrawResult, final []attempt.Response) []mastery.Outcome {
	var out []mastery.Outcome
	for _, r := range final {
		q, ok := d.Question(r.QuestionID)
		if !ok || q.Type.IsSurvey() {
			continue
		}
		out = append(out, mastery.Outcome{Question: q, Correct: r.IsCorrect})
	}
	return out
}

func transitionScore(m *mastery.LearnerMastery, tr mastery.Transition) float64 {
	if m == nil {
		return 0
	}
	if tr.Kind == "type" {
		return m.Types[question.Type(tr.Key)].Score
	}
	return m.Tags[tr.Key].Score
}
