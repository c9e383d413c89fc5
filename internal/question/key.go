package question

import (
	"maps"
	"slices"
)

// AnswerKey is the type-specific correct answer of a question. The set of
// implementations is closed: one per Type.
type AnswerKey interface {
	QuestionType() Type
	isAnswerKey()
}

type MultipleChoiceKey struct {
	CorrectID string `json:"correctId"`
}

type MultipleSelectKey struct {
	CorrectIDs []string    `json:"correctIds"`
	Mode       ScoringMode `json:"mode,omitempty"` // default all-or-nothing
}

type TrueFalseKey struct {
	Answer bool `json:"answer"`
}

// Blank is one gap of a fill-in-blank question.
type Blank struct {
	ID       string   `json:"id"`
	Accepted []string `json:"accepted"`
}

type FillInBlankKey struct {
	Blanks        []Blank `json:"blanks"`
	CaseSensitive bool    `json:"caseSensitive,omitempty"`
}

type ShortAnswerKey struct {
	Accepted      []string `json:"accepted"`
	CaseSensitive bool     `json:"caseSensitive,omitempty"`
}

// MatchingKey maps each left-hand item id to its right-hand item id.
type MatchingKey struct {
	Pairs map[string]string `json:"pairs"`
}

type OrderingKey struct {
	Order []string    `json:"order"`
	Mode  ScoringMode `json:"mode,omitempty"` // default exact; partial = adjacency
}

type HotspotKey struct {
	CorrectIDs  []string `json:"correctIds"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
}

// SliderKey without a CorrectValue, or with Survey set, accepts any value.
type SliderKey struct {
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	CorrectValue *float64 `json:"correctValue,omitempty"`
	Tolerance    float64  `json:"tolerance,omitempty"`
	Survey       bool     `json:"survey,omitempty"`
}

type LikertKey struct {
	Scale int `json:"scale"`
}

type RankingKey struct {
	Items []string `json:"items"`
}

type EssayKey struct {
	MinWords int `json:"minWords,omitempty"`
}

func (MultipleChoiceKey) QuestionType() Type { return TypeMultipleChoice }
func (MultipleSelectKey) QuestionType() Type { return TypeMultipleSelect }
func (TrueFalseKey) QuestionType() Type      { return TypeTrueFalse }
func (FillInBlankKey) QuestionType() Type    { return TypeFillInBlank }
func (ShortAnswerKey) QuestionType() Type    { return TypeShortAnswer }
func (MatchingKey) QuestionType() Type       { return TypeMatching }
func (OrderingKey) QuestionType() Type       { return TypeOrdering }
func (HotspotKey) QuestionType() Type        { return TypeHotspot }
func (SliderKey) QuestionType() Type         { return TypeSlider }
func (LikertKey) QuestionType() Type         { return TypeLikert }
func (RankingKey) QuestionType() Type        { return TypeRanking }
func (EssayKey) QuestionType() Type          { return TypeEssay }

func (MultipleChoiceKey) isAnswerKey() {}
func (MultipleSelectKey) isAnswerKey() {}
func (TrueFalseKey) isAnswerKey()      {}
func (FillInBlankKey) isAnswerKey()    {}
func (ShortAnswerKey) isAnswerKey()    {}
func (MatchingKey) isAnswerKey()       {}
func (OrderingKey) isAnswerKey()       {}
func (HotspotKey) isAnswerKey()        {}
func (SliderKey) isAnswerKey()         {}
func (LikertKey) isAnswerKey()         {}
func (RankingKey) isAnswerKey()        {}
func (EssayKey) isAnswerKey()          {}

func cloneKey(k AnswerKey) AnswerKey {
	switch k := k.(type) {
	case MultipleSelectKey:
		k.CorrectIDs = slices.Clone(k.CorrectIDs)
		return k
	case FillInBlankKey:
		blanks := make([]Blank, len(k.Blanks))
		for i, b := range k.Blanks {
			blanks[i] = Blank{ID: b.ID, Accepted: slices.Clone(b.Accepted)}
		}
		k.Blanks = blanks
		return k
	case ShortAnswerKey:
		k.Accepted = slices.Clone(k.Accepted)
		return k
	case MatchingKey:
		k.Pairs = maps.Clone(k.Pairs)
		return k
	case OrderingKey:
		k.Order = slices.Clone(k.Order)
		return k
	case HotspotKey:
		k.CorrectIDs = slices.Clone(k.CorrectIDs)
		return k
	case SliderKey:
		if k.CorrectValue != nil {
			v := *k.CorrectValue
			k.CorrectValue = &v
		}
		return k
	case RankingKey:
		k.Items = slices.Clone(k.Items)
		return k
	}
	return k
}

// NewKey returns the zero answer key for t, or nil for unknown types.
func NewKey(t Type) AnswerKey {
	switch t {
	case TypeMultipleChoice:
		return MultipleChoiceKey{}
	case TypeMultipleSelect:
		return MultipleSelectKey{}
	case TypeTrueFalse:
		return TrueFalseKey{}
	case TypeFillInBlank:
		return FillInBlankKey{}
	case TypeShortAnswer:
		return ShortAnswerKey{}
	case TypeMatching:
		return MatchingKey{}
	case TypeOrdering:
		return OrderingKey{}
	case TypeHotspot:
		return HotspotKey{}
	case TypeSlider:
		return SliderKey{}
	case TypeLikert:
		return LikertKey{}
	case TypeRanking:
		return RankingKey{}
	case TypeEssay:
		return EssayKey{}
	}
	return nil
}
