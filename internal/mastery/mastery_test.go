package mastery

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/quizpool/internal/question"
)

func algebraQuestion() question.Question {
	return question.Question{
		ID:   "q1",
		Type: question.TypeMultipleChoice,
		Tags: []string{"algebra", "equations"},
		Key:  question.MultipleChoiceKey{CorrectID: "a"},
	}
}

func TestNewEmpty_ReadsZero(t *testing.T) {
	m := NewEmpty("learner-1")
	if m.LearnerID != "learner-1" {
		t.Errorf("LearnerID = %q", m.LearnerID)
	}
	if got := m.TagScore("algebra"); got != 0 {
		t.Errorf("TagScore = %v, want 0", got)
	}
	if got := m.TypeScore(question.TypeEssay); got != 0 {
		t.Errorf("TypeScore = %v, want 0", got)
	}
}

func TestUpdate_CorrectRaisesTagsAndType(t *testing.T) {
	m := Update(NewEmpty("l"), algebraQuestion(), true)

	for _, tag := range []string{"algebra", "equations"} {
		if got := m.TagScore(tag); math.Abs(got-DefaultRate) > 1e-12 {
			t.Errorf("TagScore(%s) = %v, want %v", tag, got, DefaultRate)
		}
	}
	if got := m.TypeScore(question.TypeMultipleChoice); math.Abs(got-DefaultRate) > 1e-12 {
		t.Errorf("TypeScore = %v, want %v", got, DefaultRate)
	}
	p := m.Tags["algebra"]
	if p.Attempts != 1 || p.Correct != 1 {
		t.Errorf("counters = %+v, want 1/1", p)
	}
}

func TestUpdate_WrongLowersScore(t *testing.T) {
	m := NewEmpty("l")
	for i := 0; i < 5; i++ {
		m = Update(m, algebraQuestion(), true)
	}
	before := m.TagScore("algebra")
	m = Update(m, algebraQuestion(), false)
	after := m.TagScore("algebra")
	if after >= before {
		t.Errorf("score after wrong answer = %v, want below %v", after, before)
	}
	if p := m.Tags["algebra"]; p.Attempts != 6 || p.Correct != 5 {
		t.Errorf("counters = %+v, want 6 attempts / 5 correct", p)
	}
}

func TestUpdate_DoesNotMutateCurrent(t *testing.T) {
	current := NewEmpty("l")
	current.Version = 4
	next := Update(current, algebraQuestion(), true)

	if len(current.Tags) != 0 || len(current.Types) != 0 {
		t.Errorf("current was mutated: %+v", current)
	}
	if next.Version != 4 {
		t.Errorf("Version = %d, want it carried over unchanged", next.Version)
	}
}

func TestUpdate_NilCurrent(t *testing.T) {
	m := Update(nil, algebraQuestion(), false)
	if m == nil {
		t.Fatal("Update(nil) returned nil")
	}
	if got := m.Tags["algebra"].Attempts; got != 1 {
		t.Errorf("Attempts = %d, want 1", got)
	}
}

func TestUpdate_DuplicateTagsCountOnce(t *testing.T) {
	q := algebraQuestion()
	q.Tags = []string{"algebra", "algebra", ""}
	m := Update(nil, q, true)
	if got := m.Tags["algebra"].Attempts; got != 1 {
		t.Errorf("Attempts = %d, want 1", got)
	}
	if _, ok := m.Tags[""]; ok {
		t.Error("empty tag was recorded")
	}
}

func TestUpdate_MonotonicOnCorrectStreak(t *testing.T) {
	m := NewEmpty("l")
	prev := 0.0
	for i := 0; i < 50; i++ {
		m = Update(m, algebraQuestion(), true)
		got := m.TagScore("algebra")
		if got < prev {
			t.Fatalf("step %d: score dropped from %v to %v", i, prev, got)
		}
		prev = got
	}
	if prev < MasteredThreshold {
		t.Errorf("score after 50 correct = %v, want mastered", prev)
	}
}

func TestUpdate_BoundsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m := NewEmpty("l")
	for i := 0; i < 5000; i++ {
		rate := rng.Float64()*1.4 - 0.2 // includes out-of-range rates
		m = UpdateWithRate(m, algebraQuestion(), rng.IntN(2) == 0, rate)
		for tag, p := range m.Tags {
			if p.Score < 0 || p.Score > 1 {
				t.Fatalf("tag %s score %v out of bounds", tag, p.Score)
			}
		}
		for typ, p := range m.Types {
			if p.Score < 0 || p.Score > 1 {
				t.Fatalf("type %s score %v out of bounds", typ, p.Score)
			}
		}
	}
}

func TestQuestionScore_AveragesTagsAndType(t *testing.T) {
	m := NewEmpty("l")
	m.Tags["algebra"] = Proficiency{Score: 0.9, Attempts: 3}
	m.Tags["equations"] = Proficiency{Score: 0.3, Attempts: 3}
	m.Types[question.TypeMultipleChoice] = Proficiency{Score: 0.6, Attempts: 6}

	q := algebraQuestion()
	if got := m.QuestionScore(&q); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("QuestionScore = %v, want 0.6", got)
	}

	var nilMastery *LearnerMastery
	if got := nilMastery.QuestionScore(&q); got != 0 {
		t.Errorf("nil QuestionScore = %v, want 0", got)
	}
}

func TestApply_FoldsInOrder(t *testing.T) {
	q := algebraQuestion()
	got := Apply(NewEmpty("l"), []Outcome{{q, true}, {q, false}, {q, true}})
	want := Update(Update(Update(NewEmpty("l"), q, true), q, false), q, true)
	if got.TagScore("algebra") != want.TagScore("algebra") {
		t.Errorf("Apply = %v, want %v", got.TagScore("algebra"), want.TagScore("algebra"))
	}
	if got.Tags["algebra"].Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", got.Tags["algebra"].Attempts)
	}
}
