package pool

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/question"
)

func questionIDs(d *DrawResult) []string {
	out := make([]string, len(d.Questions))
	for i, q := range d.Questions {
		out[i] = q.ID
	}
	return out
}

func TestDraw_SameSeedSameQuestions(t *testing.T) {
	banks := Index(newBank(t, "algebra", 10, "algebra"))
	p := &Pool{ID: "p1", Sources: []Source{{BankID: "algebra"}}, DrawCount: 5}

	first, err := Draw(banks, p, DrawOptions{Seed: ptr(uint64(42))})
	require.NoError(t, err)
	second, err := Draw(banks, p, DrawOptions{Seed: ptr(uint64(42))})
	require.NoError(t, err)

	assert.Len(t, first.Questions, 5)
	assert.Equal(t, questionIDs(first), questionIDs(second))
	assert.Equal(t, uint64(42), first.Seed)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDraw_UnseededRecordsReplayableSeed(t *testing.T) {
	banks := Index(newBank(t, "algebra", 10))
	p := &Pool{ID: "p1", Sources: []Source{{BankID: "algebra"}}, DrawCount: 4}

	first, err := Draw(banks, p, DrawOptions{})
	require.NoError(t, err)

	replay, err := Draw(banks, p, DrawOptions{Seed: ptr(first.Seed)})
	require.NoError(t, err)
	assert.Equal(t, questionIDs(first), questionIDs(replay))
}

func TestDraw_NoDuplicatesAndSourceMap(t *testing.T) {
	a := newBank(t, "a", 6)
	b := newBank(t, "b", 6)
	cat := a.AddCategory("subset")
	require.NoError(t, a.AssignCategory(cat.ID, "a-q01"))
	require.NoError(t, a.AssignCategory(cat.ID, "a-q03"))

	banks := Index(a, b)
	p := &Pool{
		ID:        "mixed",
		Sources:   []Source{{BankID: "a", CategoryID: cat.ID}, {BankID: "b"}, {BankID: "a"}},
		DrawCount: 12,
	}

	for seed := range uint64(50) {
		d, err := Draw(banks, p, DrawOptions{Seed: ptr(seed)})
		require.NoError(t, err)
		require.Len(t, d.Questions, 12)

		seen := map[string]bool{}
		for _, q := range d.Questions {
			assert.False(t, seen[q.ID], "duplicate %s with seed %d", q.ID, seed)
			seen[q.ID] = true

			bankID, ok := d.SourceMap[q.ID]
			require.True(t, ok, "question %s missing from source map", q.ID)
			assert.Contains(t, Index(a, b), bankID)
			assert.Equal(t, q.ID[:1], bankID)
		}
		assert.Len(t, d.SourceMap, 12)
	}
}

func TestDraw_DoesNotShareQuestionsWithBank(t *testing.T) {
	b := newBank(t, "algebra", 3)
	p := &Pool{Sources: []Source{{BankID: "algebra"}}, DrawCount: 3}

	d, err := Draw(Index(b), p, DrawOptions{Seed: ptr(uint64(1))})
	require.NoError(t, err)
	d.Questions[0].Choices[0].Text = "mutated"

	for _, q := range b.Questions {
		assert.Equal(t, "A", q.Choices[0].Text)
	}
}

func TestDraw_InvalidPool(t *testing.T) {
	banks := Index(newBank(t, "algebra", 10))
	p := &Pool{ID: "big", Sources: []Source{{BankID: "algebra"}}, DrawCount: 20}

	d, err := Draw(banks, p, DrawOptions{})
	assert.Nil(t, d)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "big", verr.PoolID)
	assert.Contains(t, verr.Issues, "Draw count exceeds available questions (20 > 10)")
	assert.Contains(t, err.Error(), "Draw count exceeds available questions")
}

func TestDraw_Metadata(t *testing.T) {
	banks := Index(newBank(t, "algebra", 3))
	p := &Pool{ID: "p1", Sources: []Source{{BankID: "algebra"}}, DrawCount: 2}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := Draw(banks, p, DrawOptions{LearnerID: "learner-1", Now: func() time.Time { return at }})
	require.NoError(t, err)
	assert.Equal(t, "p1", d.PoolID)
	assert.Equal(t, "learner-1", d.LearnerID)
	assert.Equal(t, at, d.CreatedAt)
	assert.Equal(t, 2.0, d.MaxScore())

	_, ok := d.Question(d.Questions[1].ID)
	assert.True(t, ok)
	_, ok = d.Question("nope")
	assert.False(t, ok)
}

func TestDraw_WeightedFavorsWeakQuestions(t *testing.T) {
	b := newBank(t, "mix", 0)
	_, err := b.AddQuestion(mcq("strong", "easy"))
	require.NoError(t, err)
	_, err = b.AddQuestion(mcq("weak", "hard"))
	require.NoError(t, err)

	m := mastery.NewEmpty("learner")
	m.Tags["easy"] = mastery.Proficiency{Score: 1, Attempts: 10}
	m.Tags["hard"] = mastery.Proficiency{Score: 0, Attempts: 10}
	m.Types[question.TypeMultipleChoice] = mastery.Proficiency{Score: 0.5, Attempts: 20}

	p := &Pool{Sources: []Source{{BankID: "mix"}}, DrawCount: 1, WeightByMastery: true}

	weak := 0
	const runs = 1000
	for seed := range uint64(runs) {
		d, err := Draw(Index(b), p, DrawOptions{Mastery: m, Seed: ptr(seed)})
		require.NoError(t, err)
		if d.Questions[0].ID == "weak" {
			weak++
		}
	}
	// Weights are 0.8 (weak) and 0.3 (strong), so about 73% weak.
	assert.Greater(t, weak, 600)
	assert.Less(t, weak, 850)
}

func TestDraw_WeightingIgnoredWhenDisabled(t *testing.T) {
	banks := Index(newBank(t, "algebra", 10, "algebra"))
	m := mastery.NewEmpty("learner")
	m.Tags["algebra"] = mastery.Proficiency{Score: 0.9}

	p := &Pool{Sources: []Source{{BankID: "algebra"}}, DrawCount: 5}
	withMastery, err := Draw(banks, p, DrawOptions{Mastery: m, Seed: ptr(uint64(9))})
	require.NoError(t, err)
	without, err := Draw(banks, p, DrawOptions{Seed: ptr(uint64(9))})
	require.NoError(t, err)

	assert.Equal(t, questionIDs(without), questionIDs(withMastery))
}

func TestDraw_WeightedIsDeterministic(t *testing.T) {
	banks := Index(newBank(t, "algebra", 10, "algebra"))
	m := mastery.NewEmpty("learner")
	m.Tags["algebra"] = mastery.Proficiency{Score: 0.4}

	p := &Pool{Sources: []Source{{BankID: "algebra"}}, DrawCount: 10, WeightByMastery: true}
	first, err := Draw(banks, p, DrawOptions{Mastery: m, Seed: ptr(uint64(42))})
	require.NoError(t, err)
	second, err := Draw(banks, p, DrawOptions{Mastery: m, Seed: ptr(uint64(42))})
	require.NoError(t, err)

	assert.Equal(t, questionIDs(first), questionIDs(second))
}

func TestWeightedPick_ZeroWeightsFallBackToUniform(t *testing.T) {
	cands := []candidate{{q: mcq("a")}, {q: mcq("b")}, {q: mcq("c")}}
	rng := rand.New(rand.NewPCG(1, 1))

	got := weightedPick(rng, cands, []float64{0, 0, 0}, 3)
	require.Len(t, got, 3)

	ids := map[string]bool{}
	for _, c := range got {
		ids[c.q.ID] = true
	}
	assert.Len(t, ids, 3)
}
