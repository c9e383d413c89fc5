package question

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a payload names a type this package
// does not support.
var ErrUnknownType = errors.New("unknown question type")

// Response is a learner's raw answer to one question. Like AnswerKey the
// set of implementations is closed and keyed by Type.
type Response interface {
	QuestionType() Type
	isResponse()
}

type MultipleChoiceResponse struct {
	ChoiceID string `json:"choiceId"`
}

type MultipleSelectResponse struct {
	ChoiceIDs []string `json:"choiceIds"`
}

type TrueFalseResponse struct {
	Value bool `json:"value"`
}

// FillInBlankResponse maps blank id to the learner's text.
type FillInBlankResponse struct {
	Answers map[string]string `json:"answers"`
}

type ShortAnswerResponse struct {
	Text string `json:"text"`
}

// MatchingResponse maps left-hand item id to the chosen right-hand id.
type MatchingResponse struct {
	Pairs map[string]string `json:"pairs"`
}

type OrderingResponse struct {
	Order []string `json:"order"`
}

type HotspotResponse struct {
	SpotIDs []string `json:"spotIds"`
}

type SliderResponse struct {
	Value float64 `json:"value"`
}

type LikertResponse struct {
	Value int `json:"value"`
}

type RankingResponse struct {
	Order []string `json:"order"`
}

type EssayResponse struct {
	Text string `json:"text"`
}

func (MultipleChoiceResponse) QuestionType() Type { return TypeMultipleChoice }
func (MultipleSelectResponse) QuestionType() Type { return TypeMultipleSelect }
func (TrueFalseResponse) QuestionType() Type      { return TypeTrueFalse }
func (FillInBlankResponse) QuestionType() Type    { return TypeFillInBlank }
func (ShortAnswerResponse) QuestionType() Type    { return TypeShortAnswer }
func (MatchingResponse) QuestionType() Type       { return TypeMatching }
func (OrderingResponse) QuestionType() Type       { return TypeOrdering }
func (HotspotResponse) QuestionType() Type        { return TypeHotspot }
func (SliderResponse) QuestionType() Type         { return TypeSlider }
func (LikertResponse) QuestionType() Type         { return TypeLikert }
func (RankingResponse) QuestionType() Type        { return TypeRanking }
func (EssayResponse) QuestionType() Type          { return TypeEssay }

func (MultipleChoiceResponse) isResponse() {}
func (MultipleSelectResponse) isResponse() {}
func (TrueFalseResponse) isResponse()      {}
func (FillInBlankResponse) isResponse()    {}
func (ShortAnswerResponse) isResponse()    {}
func (MatchingResponse) isResponse()       {}
func (OrderingResponse) isResponse()       {}
func (HotspotResponse) isResponse()        {}
func (SliderResponse) isResponse()         {}
func (LikertResponse) isResponse()         {}
func (RankingResponse) isResponse()        {}
func (EssayResponse) isResponse()          {}

// DecodeResponse decodes a JSON payload into the response variant for t.
func DecodeResponse(t Type, raw json.RawMessage) (Response, error) {
	switch t {
	case TypeMultipleChoice:
		return decodeInto[MultipleChoiceResponse](raw)
	case TypeMultipleSelect:
		return decodeInto[MultipleSelectResponse](raw)
	case TypeTrueFalse:
		return decodeInto[TrueFalseResponse](raw)
	case TypeFillInBlank:
		return decodeInto[FillInBlankResponse](raw)
	case TypeShortAnswer:
		return decodeInto[ShortAnswerResponse](raw)
	case TypeMatching:
		return decodeInto[MatchingResponse](raw)
	case TypeOrdering:
		return decodeInto[OrderingResponse](raw)
	case TypeHotspot:
		return decodeInto[HotspotResponse](raw)
	case TypeSlider:
		return decodeInto[SliderResponse](raw)
	case TypeLikert:
		return decodeInto[LikertResponse](raw)
	case TypeRanking:
		return decodeInto[RankingResponse](raw)
	case TypeEssay:
		return decodeInto[EssayResponse](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// Envelope is the self-describing wire form of a Response.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeResponse wraps r in an Envelope.
func EncodeResponse(r Response) (Envelope, error) {
	if r == nil {
		return Envelope{}, errors.New("nil response")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s response: %w", r.QuestionType(), err)
	}
	return Envelope{Type: r.QuestionType(), Payload: b}, nil
}

// Decode returns the Response held by the envelope.
func (e Envelope) Decode() (Response, error) {
	return DecodeResponse(e.Type, e.Payload)
}

func decodeInto[R Response](raw json.RawMessage) (Response, error) {
	var r R
	if len(raw) == 0 {
		return nil, errors.New("empty response payload")
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", r.QuestionType(), err)
	}
	return r, nil
}
