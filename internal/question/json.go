package question

import (
	"encoding/json"
	"fmt"
)

type questionJSON struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Prompt     string          `json:"prompt,omitempty"`
	Points     *float64        `json:"points,omitempty"`
	Difficulty int             `json:"difficulty,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Choices    []Choice        `json:"choices,omitempty"`
	Key        json.RawMessage `json:"key,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{
		ID:         q.ID,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Points:     q.Points,
		Difficulty: q.Difficulty,
		Tags:       q.Tags,
		Choices:    q.Choices,
	}
	if q.Key != nil {
		b, err := json.Marshal(q.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key of question %q: %w", q.ID, err)
		}
		out.Key = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the key by the type discriminator. An unknown
// type is not an error: the question decodes with a nil key and every
// response to it scores zero.
func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	key, err := decodeKey(in.Type, in.Key)
	if err != nil {
		return fmt.Errorf("decode key of question %q: %w", in.ID, err)
	}
	*q = Question{
		ID:         in.ID,
		Type:       in.Type,
		Prompt:     in.Prompt,
		Points:     in.Points,
		Difficulty: in.Difficulty,
		Tags:       in.Tags,
		Choices:    in.Choices,
		Key:        key,
	}
	return nil
}

func decodeKey(t Type, raw json.RawMessage) (AnswerKey, error) {
	switch t {
	case TypeMultipleChoice:
		return decodeKeyAs[MultipleChoiceKey](raw)
	case TypeMultipleSelect:
		return decodeKeyAs[MultipleSelectKey](raw)
	case TypeTrueFalse:
		return decodeKeyAs[TrueFalseKey](raw)
	case TypeFillInBlank:
		return decodeKeyAs[FillInBlankKey](raw)
	case TypeShortAnswer:
		return decodeKeyAs[ShortAnswerKey](raw)
	case TypeMatching:
		return decodeKeyAs[MatchingKey](raw)
	case TypeOrdering:
		return decodeKeyAs[OrderingKey](raw)
	case TypeHotspot:
		return decodeKeyAs[HotspotKey](raw)
	case TypeSlider:
		return decodeKeyAs[SliderKey](raw)
	case TypeLikert:
		return decodeKeyAs[LikertKey](raw)
	case TypeRanking:
		return decodeKeyAs[RankingKey](raw)
	case TypeEssay:
		return decodeKeyAs[EssayKey](raw)
	}
	return nil, nil
}

func decodeKeyAs[K AnswerKey](raw json.RawMessage) (AnswerKey, error) {
	var k K
	if len(raw) == 0 || string(raw) == "null" {
		return k, nil
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, err
	}
	return k, nil
}
