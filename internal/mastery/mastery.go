package mastery

import (
	"maps"
	"time"

	"github.com/abhisek/quizpool/internal/question"
)

// DefaultRate is the learning rate of the exponential moving average that
// moves a score toward 1 on a correct answer and toward 0 on a wrong one.
const DefaultRate = 0.3

// Proficiency is the learner's standing on one tag or question type.
type Proficiency struct {
	Score    float64 `json:"score"` // always within [0, 1]
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
}

// Accuracy returns the lifetime correct ratio.
func (p Proficiency) Accuracy() float64 {
	if p.Attempts == 0 {
		return 0.0
	}
	return float64(p.Correct) / float64(p.Attempts)
}

// LearnerMastery aggregates a learner's proficiency by tag and by
// question type. Absent entries read as a zero score.
//
// Version is owned by the store: it is the optimistic-concurrency token
// and is left unchanged by Update.
type LearnerMastery struct {
	LearnerID string                        `json:"learnerId"`
	Tags      map[string]Proficiency        `json:"tags"`
	Types     map[question.Type]Proficiency `json:"types"`
	Version   int64                         `json:"version"`
	UpdatedAt time.Time                     `json:"updatedAt"`
}

// NewEmpty returns a zeroed mastery record for learnerID.
func NewEmpty(learnerID string) *LearnerMastery {
	return &LearnerMastery{
		LearnerID: learnerID,
		Tags:      make(map[string]Proficiency),
		Types:     make(map[question.Type]Proficiency),
	}
}

// Clone returns an independent copy of m.
func (m *LearnerMastery) Clone() *LearnerMastery {
	if m == nil {
		return nil
	}
	out := *m
	out.Tags = maps.Clone(m.Tags)
	out.Types = maps.Clone(m.Types)
	if out.Tags == nil {
		out.Tags = make(map[string]Proficiency)
	}
	if out.Types == nil {
		out.Types = make(map[question.Type]Proficiency)
	}
	return &out
}

// TagScore returns the score for tag, 0 when never seen.
func (m *LearnerMastery) TagScore(tag string) float64 {
	if m == nil {
		return 0
	}
	return m.Tags[tag].Score
}

// TypeScore returns the score for a question type, 0 when never seen.
func (m *LearnerMastery) TypeScore(t question.Type) float64 {
	if m == nil {
		return 0
	}
	return m.Types[t].Score
}

// QuestionScore estimates how well the learner knows q: the mean of the
// scores of its tags and its type.
func (m *LearnerMastery) QuestionScore(q *question.Question) float64 {
	if m == nil {
		return 0
	}
	tags := q.UniqueTags()
	sum := m.TypeScore(q.Type)
	for _, tag := range tags {
		sum += m.TagScore(tag)
	}
	return clamp(sum/float64(len(tags)+1), 0, 1)
}

// Update returns a new record with every tag of q and q's type nudged
// toward 1 when wasCorrect, toward 0 otherwise. current is not modified;
// a nil current is treated as empty.
func Update(current *LearnerMastery, q question.Question, wasCorrect bool) *LearnerMastery {
	return UpdateWithRate(current, q, wasCorrect, DefaultRate)
}

// UpdateWithRate is Update with an explicit learning rate in (0, 1].
// Out-of-range rates are replaced by DefaultRate.
func UpdateWithRate(current *LearnerMastery, q question.Question, wasCorrect bool, rate float64) *LearnerMastery {
	if rate <= 0 || rate > 1 {
		rate = DefaultRate
	}
	next := current.Clone()
	if next == nil {
		next = NewEmpty("")
	}

	for _, tag := range q.UniqueTags() {
		next.Tags[tag] = step(next.Tags[tag], wasCorrect, rate)
	}
	if q.Type != "" {
		next.Types[q.Type] = step(next.Types[q.Type], wasCorrect, rate)
	}
	return next
}

// Outcome is one graded question fed to Apply.
type Outcome struct {
	Question question.Question
	Correct  bool
}

// Apply folds Update over outcomes in order.
func Apply(current *LearnerMastery, outcomes []Outcome) *LearnerMastery {
	next := current.Clone()
	if next == nil {
		next = NewEmpty("")
	}
	for _, o := range outcomes {
		next = Update(next, o.Question, o.Correct)
	}
	return next
}

func step(p Proficiency, correct bool, rate float64) Proficiency {
	target := 0.0
	if correct {
		target = 1.0
		p.Correct++
	}
	p.Attempts++
	p.Score = clamp(p.Score+rate*(target-p.Score), 0, 1)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
