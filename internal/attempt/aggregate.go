package attempt

import (
	"time"

	"github.com/abhisek/quizpool/internal/pool"
)

// PoolResults is the scored outcome of one draw.
type PoolResults struct {
	DrawID        string        `json:"drawId"`
	PoolID        string        `json:"poolId"`
	TotalScore    float64       `json:"totalScore"`
	MaxScore      float64       `json:"maxScore"`
	Percentage    float64       `json:"percentage"`
	Passed        bool          `json:"passed"`
	CorrectCount  int           `json:"correctCount"`
	QuestionCount int           `json:"questionCount"`
	Duration      time.Duration `json:"duration"`

	// Responses holds the final response per answered question, in draw
	// order.
	Responses []Response `json:"responses"`
}

// Final reduces responses to the latest attempt per question, keeping
// only questions that are part of the draw. The result is in draw order.
func Final(draw *pool.DrawResult, responses []Response) []Response {
	latest := make(map[string]Response, len(draw.Questions))
	for _, r := range responses {
		if cur, ok := latest[r.QuestionID]; !ok || newer(r, cur) {
			latest[r.QuestionID] = r
		}
	}

	out := make([]Response, 0, len(latest))
	for _, q := range draw.Questions {
		if r, ok := latest[q.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate scores a draw. Only the latest attempt per question counts,
// and responses to questions outside the draw are ignored, so aggregating
// the same responses twice yields the same result. Duration sums every
// submission for a drawn question, retries included.
func Aggregate(draw *pool.DrawResult, responses []Response, p *pool.Pool) *PoolResults {
	final := Final(draw, responses)

	res := &PoolResults{
		DrawID:        draw.ID,
		PoolID:        draw.PoolID,
		MaxScore:      draw.MaxScore(),
		QuestionCount: len(draw.Questions),
		Responses:     final,
	}

	for _, r := range final {
		res.TotalScore += r.PointsEarned
		if r.IsCorrect {
			res.CorrectCount++
		}
	}

	drawn := make(map[string]bool, len(draw.Questions))
	for _, q := range draw.Questions {
		drawn[q.ID] = true
	}
	for _, r := range responses {
		if drawn[r.QuestionID] {
			res.Duration += r.Duration
		}
	}

	if res.MaxScore > 0 {
		res.Percentage = res.TotalScore / res.MaxScore * 100
	}

	res.Passed = true
	if p != nil && p.Scoring.PassingScore != nil {
		res.Passed = res.Percentage >= *p.Scoring.PassingScore
	}
	return res
}
