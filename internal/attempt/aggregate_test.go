package attempt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_LatestAttemptWins(t *testing.T) {
	d := algebraDraw(2)
	responses := []Response{
		{QuestionID: "q0", AttemptNumber: 2, IsCorrect: true, Score: 1, PointsEarned: 1, SubmittedAt: t0, Duration: time.Second},
		{QuestionID: "q0", AttemptNumber: 1, PointsEarned: 0, SubmittedAt: t0.Add(time.Minute), Duration: 2 * time.Second},
		{QuestionID: "q1", AttemptNumber: 1, PointsEarned: 0, SubmittedAt: t0, Duration: time.Second},
		{QuestionID: "q1", AttemptNumber: 1, IsCorrect: true, PointsEarned: 1, SubmittedAt: t0.Add(time.Second), Duration: time.Second},
		{QuestionID: "stranger", AttemptNumber: 1, IsCorrect: true, PointsEarned: 10, Duration: time.Hour},
	}

	res := Aggregate(d, responses, passing(100))
	assert.Equal(t, 2.0, res.TotalScore)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 100.0, res.Percentage)
	assert.True(t, res.Passed)
	assert.Equal(t, 5*time.Second, res.Duration)
	if assert.Len(t, res.Responses, 2) {
		assert.Equal(t, "q0", res.Responses[0].QuestionID)
		assert.Equal(t, 2, res.Responses[0].AttemptNumber)
	}
}

func TestAggregate_TieKeepsLaterSubmission(t *testing.T) {
	d := algebraDraw(1)
	responses := []Response{
		{QuestionID: "q0", Score: 0},
		{QuestionID: "q0", IsCorrect: true, Score: 1, PointsEarned: 1},
	}

	res := Aggregate(d, responses, nil)
	assert.Equal(t, 1.0, res.TotalScore)
	assert.Equal(t, 1, res.CorrectCount)

	latest, ok := Resume(d, nil, responses).Latest("q0")
	assert.True(t, ok)
	assert.True(t, latest.IsCorrect)
}

func TestAggregate_Idempotent(t *testing.T) {
	d := algebraDraw(3)
	responses := []Response{
		{QuestionID: "q2", AttemptNumber: 1, IsCorrect: true, PointsEarned: 1},
		{QuestionID: "q0", AttemptNumber: 1},
	}
	first := Aggregate(d, responses, passing(50))
	second := Aggregate(d, responses, passing(50))
	assert.Equal(t, first, second)

	// Feeding the final responses back in changes nothing.
	again := Aggregate(d, first.Responses, passing(50))
	assert.Equal(t, first.TotalScore, again.TotalScore)
	assert.Equal(t, first.Responses, again.Responses)
	assert.False(t, first.Passed)
}

func TestAggregate_EmptyDraw(t *testing.T) {
	d := algebraDraw(0)
	res := Aggregate(d, nil, passing(60))
	assert.Equal(t, 0.0, res.MaxScore)
	assert.Equal(t, 0.0, res.Percentage)
	assert.False(t, res.Passed)
	assert.Empty(t, res.Responses)
}

func TestAggregate_FailsBelowPassingScore(t *testing.T) {
	d := algebraDraw(5)
	var responses []Response
	for i, ok := range []bool{true, true, false, false, false} {
		r := Response{QuestionID: d.Questions[i].ID, AttemptNumber: 1, IsCorrect: ok}
		if ok {
			r.Score, r.PointsEarned = 1, 1
		}
		responses = append(responses, r)
	}
	res := Aggregate(d, responses, passing(60))
	assert.InDelta(t, 40.0, res.Percentage, 1e-9)
	assert.False(t, res.Passed)
}
