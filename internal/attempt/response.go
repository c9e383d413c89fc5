package attempt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quizpool/internal/question"
)

// Response is one graded submission for a drawn question.
type Response struct {
	QuestionID    string
	Payload       question.Response
	IsCorrect     bool
	Score         float64
	PointsEarned  float64
	AttemptNumber int
	SubmittedAt   time.Time
	Duration      time.Duration
}

type responseJSON struct {
	QuestionID    string             `json:"questionId"`
	Payload       *question.Envelope `json:"payload,omitempty"`
	IsCorrect     bool               `json:"isCorrect"`
	Score         float64            `json:"score"`
	PointsEarned  float64            `json:"pointsEarned"`
	AttemptNumber int                `json:"attemptNumber"`
	SubmittedAt   time.Time          `json:"submittedAt"`
	DurationMs    int64              `json:"durationMs"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := responseJSON{
		QuestionID:    r.QuestionID,
		IsCorrect:     r.IsCorrect,
		Score:         r.Score,
		PointsEarned:  r.PointsEarned,
		AttemptNumber: r.AttemptNumber,
		SubmittedAt:   r.SubmittedAt,
		DurationMs:    r.Duration.Milliseconds(),
	}
	if r.Payload != nil {
		env, err := question.EncodeResponse(r.Payload)
		if err != nil {
			return nil, err
		}
		out.Payload = &env
	}
	return json.Marshal(out)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var in responseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Response{
		QuestionID:    in.QuestionID,
		IsCorrect:     in.IsCorrect,
		Score:         in.Score,
		PointsEarned:  in.PointsEarned,
		AttemptNumber: in.AttemptNumber,
		SubmittedAt:   in.SubmittedAt,
		Duration:      time.Duration(in.DurationMs) * time.Millisecond,
	}
	if in.Payload != nil {
		p, err := in.Payload.Decode()
		if err != nil {
			return fmt.Errorf("response %q: %w", in.QuestionID, err)
		}
		r.Payload = p
	}
	return nil
}

// newer reports whether a supersedes b as the final answer to a question.
// a is the later submission in log order, so it wins a full tie.
func newer(a, b Response) bool {
	if a.AttemptNumber != b.AttemptNumber {
		return a.AttemptNumber > b.AttemptNumber
	}
	return !a.SubmittedAt.Before(b.SubmittedAt)
}
