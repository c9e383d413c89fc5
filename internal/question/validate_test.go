package question

import (
	"strings"
	"testing"
)

func TestIssues_ValidQuestion(t *testing.T) {
	q := Question{
		ID:         "q1",
		Type:       TypeMultipleChoice,
		Difficulty: 2,
		Choices:    []Choice{{ID: "a"}, {ID: "b"}},
		Key:        MultipleChoiceKey{CorrectID: "b"},
	}
	if errs := Issues(q); len(errs) != 0 {
		t.Errorf("Issues = %v, want none", errs)
	}
	if err := Validate(q); err != nil {
		t.Errorf("Validate = %v", err)
	}
}

func TestIssues_Accumulates(t *testing.T) {
	q := Question{
		Type:       TypeMultipleChoice,
		Difficulty: 9,
		Points:     ptr(-1.0),
		Choices:    []Choice{{ID: "a"}},
		Key:        MultipleChoiceKey{CorrectID: "z"},
	}
	errs := Issues(q)
	want := []string{"missing id", "difficulty", "points", "unknown choice"}
	if len(errs) != len(want) {
		t.Fatalf("Issues = %v, want %d issues", errs, len(want))
	}
	for i, w := range want {
		if !strings.Contains(errs[i], w) {
			t.Errorf("issue %d = %q, want it to mention %q", i, errs[i], w)
		}
	}
}

func TestIssues_KeyMismatch(t *testing.T) {
	errs := Issues(Question{ID: "q", Type: TypeEssay, Key: TrueFalseKey{}})
	if len(errs) != 1 || !strings.Contains(errs[0], "answer key is for") {
		t.Errorf("Issues = %v", errs)
	}
	errs = Issues(Question{ID: "q", Type: TypeEssay})
	if len(errs) != 1 || errs[0] != "missing answer key" {
		t.Errorf("Issues = %v", errs)
	}
}

func TestIssues_PerTypeKeys(t *testing.T) {
	tests := []struct {
		key  AnswerKey
		want string
	}{
		{MultipleSelectKey{}, "at least one correct choice"},
		{FillInBlankKey{Blanks: []Blank{{ID: "b"}}}, "no accepted answers"},
		{ShortAnswerKey{}, "accepted answer"},
		{MatchingKey{}, "at least one pair"},
		{OrderingKey{}, "at least one item"},
		{HotspotKey{}, "correct spot"},
		{SliderKey{Min: 5, Max: 1}, "below min"},
		{LikertKey{Scale: 1}, "likert scale"},
	}
	for _, tc := range tests {
		q := Question{ID: "q", Type: tc.key.QuestionType(), Key: tc.key}
		errs := Issues(q)
		if len(errs) == 0 || !strings.Contains(strings.Join(errs, ";"), tc.want) {
			t.Errorf("%s: Issues = %v, want mention of %q", q.Type, errs, tc.want)
		}
	}
}
