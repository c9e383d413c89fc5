package pool

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/question"
)

// MinWeight keeps fully mastered questions drawable.
const MinWeight = 0.05

// DrawOptions tunes a single draw.
type DrawOptions struct {
	// Mastery biases the draw toward weak areas when the pool has
	// WeightByMastery set. nil draws uniformly.
	Mastery *mastery.LearnerMastery

	// Seed makes the draw reproducible. nil picks a fresh seed, which is
	// still recorded on the result.
	Seed *uint64

	LearnerID string

	// Now stamps CreatedAt. nil means time.Now.
	Now func() time.Time
}

// DrawResult is one concrete question set drawn from a pool.
type DrawResult struct {
	ID        string              `json:"id"`
	PoolID    string              `json:"poolId"`
	LearnerID string              `json:"learnerId,omitempty"`
	Seed      uint64              `json:"seed"`
	Questions []question.Question `json:"questions"`
	SourceMap map[string]string   `json:"sourceMap"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Question returns the drawn question with the given id.
func (d *DrawResult) Question(id string) (question.Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return question.Question{}, false
}

// MaxScore is the sum of the drawn questions' point values.
func (d *DrawResult) MaxScore() float64 {
	var total float64
	for i := range d.Questions {
		total += d.Questions[i].PointValue()
	}
	return total
}

// Draw selects DrawCount distinct questions from the pool's sources. The
// same pool, banks, mastery and seed always produce the same questions in
// the same order. Draw never modifies its inputs.
func Draw(banks Banks, p *Pool, opts DrawOptions) (*DrawResult, error) {
	if issues := Validate(p, banks); len(issues) > 0 {
		return nil, &ValidationError{PoolID: p.ID, Issues: issues}
	}

	seed := rand.Uint64()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	cands := candidates(p, banks)
	var picked []candidate
	if p.WeightByMastery && opts.Mastery != nil {
		picked = weightedPick(rng, cands, weights(cands, opts.Mastery), p.DrawCount)
	} else {
		picked = uniformPick(rng, cands, p.DrawCount)
	}

	now := time.Now().UTC()
	if opts.Now != nil {
		now = opts.Now()
	}

	res := &DrawResult{
		ID:        uuid.New().String(),
		PoolID:    p.ID,
		LearnerID: opts.LearnerID,
		Seed:      seed,
		Questions: make([]question.Question, len(picked)),
		SourceMap: make(map[string]string, len(picked)),
		CreatedAt: now,
	}
	for i, c := range picked {
		res.Questions[i] = c.q.Clone()
		res.SourceMap[c.q.ID] = c.bankID
	}
	return res, nil
}

// uniformPick runs a partial Fisher-Yates shuffle over a copy of cands.
func uniformPick(rng *rand.Rand, cands []candidate, n int) []candidate {
	pool := make([]candidate, len(cands))
	copy(pool, cands)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func weights(cands []candidate, m *mastery.LearnerMastery) []float64 {
	out := make([]float64, len(cands))
	for i := range cands {
		out[i] = (1 - m.QuestionScore(&cands[i].q)) + MinWeight
	}
	return out
}

// weightedPick is roulette selection without replacement. If the
// remaining weights sum to zero it falls back to a uniform pick.
func weightedPick(rng *rand.Rand, cands []candidate, w []float64, n int) []candidate {
	pool := make([]candidate, len(cands))
	copy(pool, cands)
	ws := make([]float64, len(w))
	copy(ws, w)

	out := make([]candidate, 0, n)
	for len(out) < n {
		var total float64
		for _, x := range ws {
			total += x
		}

		idx := len(pool) - 1
		if total <= 0 {
			idx = rng.IntN(len(pool))
		} else {
			r := rng.Float64() * total
			var cum float64
			for i, x := range ws {
				cum += x
				if r < cum {
					idx = i
					break
				}
			}
		}

		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		ws = append(ws[:idx], ws[idx+1:]...)
	}
	return out
}
