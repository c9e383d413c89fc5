package question

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseAnswer turns one line of terminal input into the response variant
// for q's type.
//
// Input conventions:
//   - choices, spots, order items: an id or a 1-based index into Choices,
//     comma-separated where several are expected
//   - true-false: t/true/yes/y/1 or f/false/no/n/0
//   - fill-in-blank: one answer per blank, separated by "|"
//   - matching: left=right pairs, comma-separated
func ParseAnswer(q Question, input string) (Response, error) {
	input = strings.TrimSpace(input)

	switch q.Type {
	case TypeMultipleChoice:
		if input == "" {
			return nil, errors.New("no choice given")
		}
		return MultipleChoiceResponse{ChoiceID: resolveChoice(q, input)}, nil

	case TypeMultipleSelect:
		return MultipleSelectResponse{ChoiceIDs: resolveChoices(q, input)}, nil

	case TypeTrueFalse:
		switch strings.ToLower(input) {
		case "t", "true", "yes", "y", "1":
			return TrueFalseResponse{Value: true}, nil
		case "f", "false", "no", "n", "0":
			return TrueFalseResponse{Value: false}, nil
		}
		return nil, fmt.Errorf("expected true or false, got %q", input)

	case TypeFillInBlank:
		k, ok := q.Key.(FillInBlankKey)
		if !ok {
			return nil, errors.New("question has no blanks")
		}
		parts := strings.Split(input, "|")
		answers := make(map[string]string, len(k.Blanks))
		for i, b := range k.Blanks {
			if i < len(parts) {
				answers[b.ID] = strings.TrimSpace(parts[i])
			}
		}
		return FillInBlankResponse{Answers: answers}, nil

	case TypeShortAnswer:
		return ShortAnswerResponse{Text: input}, nil

	case TypeMatching:
		pairs := make(map[string]string)
		for _, part := range splitList(input) {
			left, right, ok := strings.Cut(part, "=")
			if !ok {
				return nil, fmt.Errorf("expected left=right, got %q", part)
			}
			pairs[strings.TrimSpace(left)] = strings.TrimSpace(right)
		}
		return MatchingResponse{Pairs: pairs}, nil

	case TypeOrdering:
		return OrderingResponse{Order: resolveChoices(q, input)}, nil

	case TypeHotspot:
		return HotspotResponse{SpotIDs: resolveChoices(q, input)}, nil

	case TypeSlider:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid slider value: %w", err)
		}
		return SliderResponse{Value: v}, nil

	case TypeLikert:
		v, err := strconv.Atoi(input)
		if err != nil {
			return nil, fmt.Errorf("invalid likert value: %w", err)
		}
		if k, ok := q.Key.(LikertKey); ok && k.Scale > 0 && (v < 1 || v > k.Scale) {
			return nil, fmt.Errorf("likert value must be between 1 and %d", k.Scale)
		}
		return LikertResponse{Value: v}, nil

	case TypeRanking:
		return RankingResponse{Order: resolveChoices(q, input)}, nil

	case TypeEssay:
		return EssayResponse{Text: input}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
}

func splitList(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func resolveChoices(q Question, input string) []string {
	parts := splitList(input)
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, resolveChoice(q, p))
	}
	return ids
}

// resolveChoice maps a 1-based index to a choice id. Anything that is not
// an in-range index is taken as an id.
func resolveChoice(q Question, token string) string {
	if idx, err := strconv.Atoi(token); err == nil && idx >= 1 && idx <= len(q.Choices) {
		return q.Choices[idx-1].ID
	}
	return token
}
