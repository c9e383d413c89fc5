package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/question"
)

// Submission is one answer in a batch responses file. Type defaults to
// the drawn question's type.
type Submission struct {
	QuestionID string          `json:"questionId"`
	Type       question.Type   `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	DurationMs int64           `json:"durationMs,omitempty"`
}

// ReadSubmissions decodes a JSON array of submissions.
func ReadSubmissions(r io.Reader) ([]Submission, error) {
	var subs []Submission
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&subs); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return subs, nil
}

// Grade submits a batch of answers against a stored draw and finishes it.
// Submissions are applied in order, so a repeated question id counts as
// a retry. Every submission is decoded before any is recorded, so a bad
// batch leaves the draw untouched.
func (s *Service) Grade(ctx context.Context, drawID string, subs []Submission) (*Outcome, error) {
	a, err := s.Resume(ctx, drawID)
	if err != nil {
		return nil, err
	}

	payloads := make([]question.Response, len(subs))
	for i, sub := range subs {
		q, ok := a.Draw().Question(sub.QuestionID)
		if !ok {
			return nil, fmt.Errorf("submission %d: %w: %q", i, attempt.ErrUnknownQuestion, sub.QuestionID)
		}
		t := sub.Type
		if t == "" {
			t = q.Type
		}
		if payloads[i], err = question.DecodeResponse(t, sub.Payload); err != nil {
			return nil, fmt.Errorf("submission %d (%s): %w", i, sub.QuestionID, err)
		}
	}

	for i, sub := range subs {
		now := s.now()
		r, err := a.Submit(sub.QuestionID, payloads[i], now.Add(-time.Duration(sub.DurationMs)*time.Millisecond), now)
		if err != nil {
			return nil, err
		}
		if err := s.Record(ctx, a.Draw(), r); err != nil {
			return nil, err
		}
	}
	return s.Finish(ctx, a)
}
