package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizpool/internal/bank"
	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/question"
	"github.com/abhisek/quizpool/internal/store"
	"github.com/abhisek/quizpool/internal/xapi"
)

type fixture struct {
	svc  *Service
	lrs  *xapi.Recorder
	warn *bytes.Buffer
	bank *bank.Bank
	pool *pool.Pool
}

func newFixture(t *testing.T, questions ...question.Question) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	b := bank.New("Algebra")
	b.ID = "algebra"
	if len(questions) == 0 {
		for i := 0; i < 5; i++ {
			questions = append(questions, question.Question{
				Type:   question.TypeTrueFalse,
				Prompt: "Is x = 2 a root of x^2 - 4?",
				Tags:   []string{"algebra"},
				Key:    question.TrueFalseKey{Answer: true},
			})
		}
	}
	for _, q := range questions {
		_, err := b.AddQuestion(q)
		require.NoError(t, err)
	}
	require.NoError(t, st.BankRepo().Save(context.Background(), b))

	passing := 60.0
	p := &pool.Pool{
		ID:        "algebra-quiz",
		Name:      "Algebra quiz",
		Sources:   []pool.Source{{BankID: b.ID}},
		DrawCount: len(questions),
		Scoring:   pool.Scoring{PassingScore: &passing},
	}
	require.NoError(t, st.PoolRepo().Save(context.Background(), p))

	lrs := xapi.NewRecorder()
	warn := &bytes.Buffer{}
	svc := NewService(st, lrs, xapi.Builder{ActivityBase: "https://quizpool.test", Now: now})
	svc.Warn = warn
	svc.Now = now
	return &fixture{svc: svc, lrs: lrs, warn: warn, bank: b, pool: p}
}

func submissions(t *testing.T, d *pool.DrawResult, correct int) []Submission {
	t.Helper()
	var subs []Submission
	for i, q := range d.Questions {
		payload, err := json.Marshal(question.TrueFalseResponse{Value: i < correct})
		require.NoError(t, err)
		subs = append(subs, Submission{QuestionID: q.ID, Payload: payload, DurationMs: 1500})
	}
	return subs
}

func seed(v uint64) *uint64 { return &v }

func TestDrawPersistsAndReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(42))
	require.NoError(t, err)
	assert.Len(t, d.Questions, 5)
	assert.Equal(t, uint64(42), d.Seed)
	assert.Equal(t, "ada", d.LearnerID)

	stored, err := f.svc.Draws.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, stored.ID)
	assert.Len(t, stored.Questions, 5)

	again, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(42))
	require.NoError(t, err)
	assert.NotEqual(t, d.ID, again.ID)
	for i := range d.Questions {
		assert.Equal(t, d.Questions[i].ID, again.Questions[i].ID)
	}

	events, err := f.svc.Events.List(ctx, store.QueryOpts{Kind: store.KindDraw})
	require.NoError(t, err)
	require.Len(t, events, 2)
	var data store.DrawEventData
	require.NoError(t, events[0].Decode(&data))
	assert.Equal(t, d.ID, data.DrawID)
	assert.Len(t, data.QuestionIDs, 5)
	assert.False(t, data.Weighted)

	require.Len(t, f.lrs.Statements, 2)
	assert.Equal(t, xapi.VerbAttempted, f.lrs.Statements[0].Verb)
}

func TestDrawUnknownPool(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Draw(context.Background(), "missing", "ada", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDrawInvalidPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.pool.DrawCount = 20
	require.NoError(t, f.svc.Pools.Save(ctx, f.pool))

	_, err := f.svc.Draw(ctx, f.pool.ID, "ada", nil)
	var verr *pool.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0], "Draw count exceeds available questions (20 > 5)")
}

func TestGradeAggregatesAndUpdatesMastery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(42))
	require.NoError(t, err)

	out, err := f.svc.Grade(ctx, d.ID, submissions(t, d, 3))
	require.NoError(t, err)

	res := out.Results
	assert.Equal(t, 3.0, res.TotalScore)
	assert.Equal(t, 5.0, res.MaxScore)
	assert.InDelta(t, 60.0, res.Percentage, 1e-9)
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.CorrectCount)
	assert.Equal(t, 5*1500*time.Millisecond, res.Duration)

	require.NotNil(t, out.After)
	assert.Equal(t, int64(1), out.After.Version)
	assert.Equal(t, 5, out.After.Tags["algebra"].Attempts)
	assert.Equal(t, 3, out.After.Tags["algebra"].Correct)
	assert.Equal(t, 5, out.After.Types[question.TypeTrueFalse].Attempts)
	assert.Equal(t, 0, out.Before.Tags["algebra"].Attempts)

	stored, err := f.svc.Mastery.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, out.After.Tags["algebra"].Score, stored.Tags["algebra"].Score)

	require.NotEmpty(t, out.Transitions)
	for _, tr := range out.Transitions {
		assert.Equal(t, mastery.LevelNew, tr.From)
	}

	responses, err := f.svc.Draws.Responses(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 5)

	results, err := f.svc.Events.List(ctx, store.QueryOpts{Kind: store.KindResult})
	require.NoError(t, err)
	require.Len(t, results, 1)
	var rd store.ResultEventData
	require.NoError(t, results[0].Decode(&rd))
	assert.True(t, rd.Passed)
	assert.Equal(t, 3, rd.CorrectCount)

	moves, err := f.svc.Events.List(ctx, store.QueryOpts{Kind: store.KindMastery, LearnerID: "ada"})
	require.NoError(t, err)
	assert.Len(t, moves, len(out.Transitions))

	verbs := map[string]int{}
	for _, st := range f.lrs.Statements {
		verbs[st.Verb.ID]++
	}
	assert.Equal(t, 1, verbs[xapi.VerbAttempted.ID])
	assert.Equal(t, 5, verbs[xapi.VerbAnswered.ID])
	assert.Equal(t, 1, verbs[xapi.VerbPassed.ID])
	assert.Equal(t, len(out.Transitions), verbs[xapi.VerbProgressed.ID])
}

func TestGradeTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(7))
	require.NoError(t, err)
	_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	require.NoError(t, err)

	_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	assert.ErrorIs(t, err, ErrFinished)

	responses, err := f.svc.Draws.Responses(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 5, "a finished draw takes no more responses")

	m, err := f.svc.Mastery.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Tags["algebra"].Attempts)
}

func TestGradeRetriesCountLatestOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(3))
	require.NoError(t, err)

	subs := submissions(t, d, 0)
	retry, err := json.Marshal(question.TrueFalseResponse{Value: true})
	require.NoError(t, err)
	subs = append(subs, Submission{QuestionID: d.Questions[0].ID, Type: question.TypeTrueFalse, Payload: retry})

	out, err := f.svc.Grade(ctx, d.ID, subs)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Results.CorrectCount)
	assert.False(t, out.Results.Passed)
	assert.Equal(t, 2, out.Results.Responses[0].AttemptNumber)
	assert.Equal(t, 5, out.After.Tags["algebra"].Attempts)
}

func TestGradeUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(1))
	require.NoError(t, err)

	_, err = f.svc.Grade(ctx, d.ID, []Submission{{QuestionID: "nope", Payload: json.RawMessage(`{"value":true}`)}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestGradeMalformedBatchRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(5))
	require.NoError(t, err)

	subs := submissions(t, d, 5)
	subs[3].Payload = json.RawMessage(`{"value":"bad"}`)
	_, err = f.svc.Grade(ctx, d.ID, subs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submission 3")

	responses, err := f.svc.Draws.Responses(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)

	out, err := f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, out.Results.CorrectCount)
	assert.Equal(t, 1, out.Results.Responses[0].AttemptNumber)
}

func TestGradeSkipsSurveyQuestionsInMastery(t *testing.T) {
	f := newFixture(t,
		question.Question{
			Type:   question.TypeTrueFalse,
			Prompt: "2 + 2 = 4?",
			Tags:   []string{"arithmetic"},
			Key:    question.TrueFalseKey{Answer: true},
		},
		question.Question{
			Type:   question.TypeLikert,
			Prompt: "How confident are you?",
			Tags:   []string{"arithmetic"},
			Key:    question.LikertKey{Scale: 5},
		},
	)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, f.pool.ID, "ada", seed(9))
	require.NoError(t, err)

	var subs []Submission
	for _, q := range d.Questions {
		payload := json.RawMessage(`{"value":true}`)
		if q.Type == question.TypeLikert {
			payload = json.RawMessage(`{"value":4}`)
		}
		subs = append(subs, Submission{QuestionID: q.ID, Payload: payload})
	}

	out, err := f.svc.Grade(ctx, d.ID, subs)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Results.CorrectCount)
	assert.Equal(t, 1, out.After.Tags["arithmetic"].Attempts)
	_, ok := out.After.Types[question.TypeLikert]
	assert.False(t, ok)
}

func TestSubmitAndResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(11))
	require.NoError(t, err)

	a, err := f.svc.Resume(ctx, d.ID)
	require.NoError(t, err)
	r, err := f.svc.Submit(ctx, a, d.Questions[0].ID, question.TrueFalseResponse{Value: true}, f.svc.now())
	require.NoError(t, err)
	assert.True(t, r.IsCorrect)

	_, err = f.svc.Submit(ctx, a, "not-drawn", question.TrueFalseResponse{Value: true}, f.svc.now())
	assert.Error(t, err)

	resumed, err := f.svc.Resume(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Answered())
	assert.Len(t, resumed.Remaining(), 4)
	assert.NotNil(t, resumed.Pool())
}

func TestResumeWithDeletedPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(5))
	require.NoError(t, err)
	require.NoError(t, f.svc.Pools.Delete(ctx, f.pool.ID))

	a, err := f.svc.Resume(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, a.Pool())
	assert.Contains(t, f.warn.String(), "no longer exists")

	// Without a pool there is no passing score, so every attempt passes.
	out, err := f.svc.Finish(ctx, a)
	require.NoError(t, err)
	assert.True(t, out.Results.Passed)
}

func TestAnonymousDrawSkipsMastery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Draw(ctx, "algebra-quiz", "", seed(2))
	require.NoError(t, err)
	out, err := f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	require.NoError(t, err)
	assert.Nil(t, out.After)
	assert.Empty(t, out.Transitions)
}

func TestLRSFailureIsOnlyAWarning(t *testing.T) {
	f := newFixture(t)
	f.svc.LRS = xapi.NewRecorder(errors.New("connection refused"))

	_, err := f.svc.Draw(context.Background(), "algebra-quiz", "ada", seed(4))
	require.NoError(t, err)
	assert.True(t, strings.Contains(f.warn.String(), "warning: failed to send 1 xAPI statement(s): connection refused"))
}

// conflictingMastery fails the first n saves with ErrConflict, as if
// another process had written in between.
type conflictingMastery struct {
	store.MasteryRepo
	n     int
	saves int
}

func (c *conflictingMastery) Save(ctx context.Context, m *mastery.LearnerMastery) error {
	c.saves++
	if c.n > 0 {
		c.n--
		return store.ErrConflict
	}
	return c.MasteryRepo.Save(ctx, m)
}

func TestFinishRetriesMasteryConflicts(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		wantErr   bool
		wantSaves int
	}{
		{"no conflict", 0, false, 1},
		{"two conflicts", 2, false, 3},
		{"gives up", maxMasteryRetries, true, maxMasteryRetries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			repo := &conflictingMastery{MasteryRepo: f.svc.Mastery, n: tt.conflicts}
			f.svc.Mastery = repo

			d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(8))
			require.NoError(t, err)
			_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 4))
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrConflict)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSaves, repo.saves)
		})
	}
}

// failingResults drops every result event.
type failingResults struct {
	store.EventRepo
}

func (failingResults) AppendResult(context.Context, store.ResultEventData) error {
	return errors.New("disk full")
}

func TestFinishIsDurableWithoutResultEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Events = failingResults{EventRepo: f.svc.Events}

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(9))
	require.NoError(t, err)
	_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	require.NoError(t, err)
	assert.Contains(t, f.warn.String(), "disk full")

	_, err = f.svc.Resume(ctx, d.ID)
	assert.ErrorIs(t, err, ErrFinished)
	_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 5))
	assert.ErrorIs(t, err, ErrFinished)

	m, err := f.svc.Mastery.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Tags["algebra"].Attempts)
	assert.Equal(t, int64(1), m.Version)
}

func TestFinishReopensDrawWhenMasteryFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := &conflictingMastery{MasteryRepo: f.svc.Mastery, n: maxMasteryRetries}
	f.svc.Mastery = repo

	d, err := f.svc.Draw(ctx, "algebra-quiz", "ada", seed(10))
	require.NoError(t, err)
	_, err = f.svc.Grade(ctx, d.ID, submissions(t, d, 2))
	require.ErrorIs(t, err, store.ErrConflict)

	at, err := f.svc.Draws.FinishedAt(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	a, err := f.svc.Resume(ctx, d.ID)
	require.NoError(t, err)
	out, err := f.svc.Finish(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.After.Version)
	assert.Equal(t, 5, out.After.Tags["algebra"].Attempts)
	assert.Equal(t, 2, out.Results.CorrectCount)

	at, err = f.svc.Draws.FinishedAt(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestReadSubmissions(t *testing.T) {
	in := `[{"questionId":"q1","payload":{"value":true},"durationMs":900},
	        {"questionId":"q2","type":"short-answer","payload":{"text":"x"}}]`
	subs, err := ReadSubmissions(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(900), subs[0].DurationMs)
	assert.Equal(t, question.TypeShortAnswer, subs[1].Type)

	_, err = ReadSubmissions(strings.NewReader(`[{"question":"q1"}]`))
	assert.Error(t, err)
}
