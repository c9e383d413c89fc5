// Package attempt holds the learner-side state of a draw: graded
// submissions and their aggregation into pool results.
package attempt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/question"
)

var ErrUnknownQuestion = errors.New("question is not part of this draw")

// Attempt collects a learner's submissions for one draw. It is safe for
// concurrent use.
type Attempt struct {
	mu        sync.Mutex
	draw      *pool.DrawResult
	pool      *pool.Pool
	responses []Response
	attempts  map[string]int
}

// New starts an attempt for draw, graded with p's scoring. p may be nil.
func New(draw *pool.DrawResult, p *pool.Pool) *Attempt {
	return &Attempt{
		draw:     draw,
		pool:     p,
		attempts: make(map[string]int),
	}
}

// Resume starts an attempt seeded with previously recorded responses.
func Resume(draw *pool.DrawResult, p *pool.Pool, prior []Response) *Attempt {
	a := New(draw, p)
	for _, r := range prior {
		if _, ok := draw.Question(r.QuestionID); !ok {
			continue
		}
		a.responses = append(a.responses, r)
		a.attempts[r.QuestionID] = max(a.attempts[r.QuestionID], r.AttemptNumber, 1)
	}
	return a
}

// Draw returns the draw being attempted.
func (a *Attempt) Draw() *pool.DrawResult { return a.draw }

// Pool returns the pool whose scoring applies, or nil.
func (a *Attempt) Pool() *pool.Pool { return a.pool }

// Submit grades payload against the drawn question and records it as the
// next attempt for that question.
func (a *Attempt) Submit(questionID string, payload question.Response, startedAt, now time.Time) (Response, error) {
	q, ok := a.draw.Question(questionID)
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}

	var modes map[question.Type]question.ScoringMode
	if a.pool != nil {
		modes = a.pool.Scoring.Modes
	}
	result := question.EvaluateWith(q, payload, modes)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.attempts[questionID]++
	r := Response{
		QuestionID:    questionID,
		Payload:       payload,
		IsCorrect:     result.IsCorrect,
		Score:         result.Score,
		PointsEarned:  q.PointValue() * result.Score,
		AttemptNumber: a.attempts[questionID],
		SubmittedAt:   now,
		Duration:      max(now.Sub(startedAt), 0),
	}
	a.responses = append(a.responses, r)
	return r, nil
}

// Responses returns every submission in the order it was made.
func (a *Attempt) Responses() []Response {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Response, len(a.responses))
	copy(out, a.responses)
	return out
}

// Latest returns the final submission for a question.
func (a *Attempt) Latest(questionID string) (Response, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var (
		best  Response
		found bool
	)
	for _, r := range a.responses {
		if r.QuestionID != questionID {
			continue
		}
		if !found || newer(r, best) {
			best, found = r, true
		}
	}
	return best, found
}

// Answered returns the number of drawn questions with at least one
// submission.
func (a *Attempt) Answered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.attempts)
}

// Remaining returns the drawn questions not yet answered, in draw order.
func (a *Attempt) Remaining() []question.Question {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []question.Question
	for _, q := range a.draw.Questions {
		if a.attempts[q.ID] == 0 {
			out = append(out, q)
		}
	}
	return out
}

// Results aggregates the submissions so far.
func (a *Attempt) Results() *PoolResults {
	return Aggregate(a.draw, a.Responses(), a.pool)
}
