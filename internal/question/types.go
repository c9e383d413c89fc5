package question

import "slices"

// Type discriminates the question union. The same value keys both the
// answer key and the learner response.
type Type string

const (
	TypeMultipleChoice Type = "multiple-choice"
	TypeMultipleSelect Type = "multiple-select"
	TypeTrueFalse      Type = "true-false"
	TypeFillInBlank    Type = "fill-in-blank"
	TypeShortAnswer    Type = "short-answer"
	TypeMatching       Type = "matching"
	TypeOrdering       Type = "ordering"
	TypeHotspot        Type = "hotspot"
	TypeSlider         Type = "slider"
	TypeLikert         Type = "likert"
	TypeRanking        Type = "ranking"
	TypeEssay          Type = "essay"
)

// AllTypes returns every supported question type in display order.
func AllTypes() []Type {
	return []Type{
		TypeMultipleChoice,
		TypeMultipleSelect,
		TypeTrueFalse,
		TypeFillInBlank,
		TypeShortAnswer,
		TypeMatching,
		TypeOrdering,
		TypeHotspot,
		TypeSlider,
		TypeLikert,
		TypeRanking,
		TypeEssay,
	}
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	return slices.Contains(AllTypes(), t)
}

// IsSurvey reports whether the type has no objectively correct answer.
func (t Type) IsSurvey() bool {
	return t == TypeLikert || t == TypeRanking || t == TypeEssay
}

// ScoringMode selects between all-or-nothing and partial credit for the
// types that support both. For ordering, partial means adjacency scoring;
// for hotspot, partial means multi-select scoring.
type ScoringMode string

const (
	ModeDefault      ScoringMode = ""
	ModeAllOrNothing ScoringMode = "all-or-nothing"
	ModePartial      ScoringMode = "partial"
)

// DefaultPoints is the point value of a question that does not set one.
const DefaultPoints = 1.0

// Choice is a selectable option shown to the learner.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one authored item. Key holds the type-specific correct
// answer and must agree with Type.
type Question struct {
	ID         string
	Type       Type
	Prompt     string
	Points     *float64 // nil means DefaultPoints
	Difficulty int      // 1-5, 0 when unset
	Tags       []string
	Choices    []Choice
	Key        AnswerKey
}

// PointValue returns the question's points, defaulting to DefaultPoints.
func (q *Question) PointValue() float64 {
	if q.Points == nil {
		return DefaultPoints
	}
	return *q.Points
}

// HasTag reports whether the question carries tag.
func (q *Question) HasTag(tag string) bool {
	return slices.Contains(q.Tags, tag)
}

// UniqueTags returns the question's tags with duplicates and empty
// strings removed, preserving first occurrence order.
func (q *Question) UniqueTags() []string {
	seen := make(map[string]bool, len(q.Tags))
	out := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ChoiceText returns the display text for a choice id, or the id itself
// when the question has no such choice.
func (q *Question) ChoiceText(id string) string {
	for _, c := range q.Choices {
		if c.ID == id {
			return c.Text
		}
	}
	return id
}

// Clone returns a deep copy, so a drawn question cannot be changed
// through the bank it came from.
func (q Question) Clone() Question {
	out := q
	if q.Points != nil {
		p := *q.Points
		out.Points = &p
	}
	out.Tags = slices.Clone(q.Tags)
	out.Choices = slices.Clone(q.Choices)
	out.Key = cloneKey(q.Key)
	return out
}
