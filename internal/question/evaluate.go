package question

import (
	"math"
	"strings"
)

// sliderEpsilon absorbs float rounding at the tolerance boundary.
const sliderEpsilon = 1e-9

// Result is the outcome of evaluating one response.
type Result struct {
	IsCorrect bool
	Score     float64 // fractional credit in [0, 1]
}

var incorrect = Result{}

func allOrNothing(ok bool) Result {
	if ok {
		return Result{IsCorrect: true, Score: 1}
	}
	return incorrect
}

func partial(score float64) Result {
	if math.IsNaN(score) || score <= 0 {
		return incorrect
	}
	if score >= 1 {
		return Result{IsCorrect: true, Score: 1}
	}
	return Result{Score: score}
}

// Evaluate scores r against q using the question's own scoring modes.
func Evaluate(q Question, r Response) Result {
	return EvaluateWith(q, r, nil)
}

// EvaluateWith scores r against q. A non-default entry in modes for the
// question's type overrides the mode stored on the key.
//
// Evaluation is total: a nil or mismatched response, a missing or empty
// key, or an unknown type yields an incorrect zero-credit result.
func EvaluateWith(q Question, r Response, modes map[Type]ScoringMode) Result {
	if q.Key == nil || r == nil {
		return incorrect
	}
	if q.Key.QuestionType() != q.Type || r.QuestionType() != q.Type {
		return incorrect
	}
	mode := modes[q.Type]

	switch k := q.Key.(type) {
	case MultipleChoiceKey:
		resp, ok := r.(MultipleChoiceResponse)
		want := strings.TrimSpace(k.CorrectID)
		if !ok || want == "" {
			return incorrect
		}
		return allOrNothing(strings.TrimSpace(resp.ChoiceID) == want)

	case MultipleSelectKey:
		resp, ok := r.(MultipleSelectResponse)
		if !ok {
			return incorrect
		}
		return evaluateMultipleSelect(k, resp, pick(mode, k.Mode))

	case TrueFalseKey:
		resp, ok := r.(TrueFalseResponse)
		if !ok {
			return incorrect
		}
		return allOrNothing(resp.Value == k.Answer)

	case FillInBlankKey:
		resp, ok := r.(FillInBlankResponse)
		if !ok || len(k.Blanks) == 0 {
			return incorrect
		}
		correct := 0
		for _, b := range k.Blanks {
			if accepts(b.Accepted, resp.Answers[b.ID], k.CaseSensitive) {
				correct++
			}
		}
		return partial(float64(correct) / float64(len(k.Blanks)))

	case ShortAnswerKey:
		resp, ok := r.(ShortAnswerResponse)
		if !ok {
			return incorrect
		}
		return allOrNothing(accepts(k.Accepted, resp.Text, k.CaseSensitive))

	case MatchingKey:
		resp, ok := r.(MatchingResponse)
		if !ok || len(k.Pairs) == 0 {
			return incorrect
		}
		correct := 0
		for left, right := range k.Pairs {
			if got, ok := resp.Pairs[left]; ok && strings.TrimSpace(got) == strings.TrimSpace(right) {
				correct++
			}
		}
		return partial(float64(correct) / float64(len(k.Pairs)))

	case OrderingKey:
		resp, ok := r.(OrderingResponse)
		if !ok || len(k.Order) == 0 {
			return incorrect
		}
		if pick(mode, k.Mode) == ModePartial && len(k.Order) > 1 {
			return partial(adjacencyScore(k.Order, resp.Order))
		}
		return allOrNothing(sameSequence(k.Order, resp.Order))

	case HotspotKey:
		resp, ok := r.(HotspotResponse)
		if !ok || len(k.CorrectIDs) == 0 {
			return incorrect
		}
		multi := k.MultiSelect
		switch mode {
		case ModePartial:
			multi = true
		case ModeAllOrNothing:
			multi = false
		}
		return evaluateHotspot(k, resp, multi)

	case SliderKey:
		resp, ok := r.(SliderResponse)
		if !ok || math.IsNaN(resp.Value) {
			return incorrect
		}
		if k.Survey || k.CorrectValue == nil {
			return allOrNothing(true)
		}
		return allOrNothing(math.Abs(resp.Value-*k.CorrectValue) <= math.Abs(k.Tolerance)+sliderEpsilon)

	case LikertKey:
		_, ok := r.(LikertResponse)
		return allOrNothing(ok)

	case RankingKey:
		_, ok := r.(RankingResponse)
		return allOrNothing(ok)

	case EssayKey:
		_, ok := r.(EssayResponse)
		return allOrNothing(ok)
	}
	return incorrect
}

func pick(override, stored ScoringMode) ScoringMode {
	if override != ModeDefault {
		return override
	}
	return stored
}

func evaluateMultipleSelect(k MultipleSelectKey, resp MultipleSelectResponse, mode ScoringMode) Result {
	want := toSet(k.CorrectIDs)
	if len(want) == 0 {
		return incorrect
	}
	got := toSet(resp.ChoiceIDs)

	if mode != ModePartial {
		return allOrNothing(equalSets(want, got))
	}

	hits, misses := 0, 0
	for id := range got {
		if want[id] {
			hits++
		} else {
			misses++
		}
	}
	return partial(float64(hits-misses) / float64(len(want)))
}

func evaluateHotspot(k HotspotKey, resp HotspotResponse, multi bool) Result {
	want := toSet(k.CorrectIDs)
	got := toSet(resp.SpotIDs)

	if !multi {
		if len(got) != 1 {
			return incorrect
		}
		for id := range got {
			return allOrNothing(want[id])
		}
	}

	hits := 0
	for id := range got {
		if want[id] {
			hits++
		}
	}
	return partial(float64(hits) / float64(len(want)))
}

// adjacencyScore counts correctly ordered neighbour pairs in got, each
// pair of the correct order counted at most once, over len(want)-1.
func adjacencyScore(want, got []string) float64 {
	pos := make(map[string]int, len(want))
	for i, id := range want {
		pos[id] = i
	}
	counted := make(map[int]bool)
	for i := 0; i+1 < len(got); i++ {
		a, okA := pos[strings.TrimSpace(got[i])]
		b, okB := pos[strings.TrimSpace(got[i+1])]
		if okA && okB && b == a+1 && !counted[a] {
			counted[a] = true
		}
	}
	return float64(len(counted)) / float64(len(want)-1)
}

func sameSequence(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func accepts(accepted []string, answer string, caseSensitive bool) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	for _, a := range accepted {
		a = strings.TrimSpace(a)
		if caseSensitive {
			if a == answer {
				return true
			}
		} else if strings.EqualFold(a, answer) {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = true
		}
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
