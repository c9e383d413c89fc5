package question

import (
	"fmt"
	"strings"
)

// Issues returns every structural problem with q. An empty result means
// the question can be stored and evaluated.
func Issues(q Question) []string {
	var errs []string

	if q.ID == "" {
		errs = append(errs, "missing id")
	}
	if !q.Type.Valid() {
		errs = append(errs, fmt.Sprintf("unknown type %q", q.Type))
	}
	if q.Difficulty < 0 || q.Difficulty > 5 {
		errs = append(errs, fmt.Sprintf("difficulty must be in [1, 5], got %d", q.Difficulty))
	}
	if q.Points != nil && *q.Points < 0 {
		errs = append(errs, fmt.Sprintf("points must be >= 0, got %g", *q.Points))
	}

	if q.Key == nil {
		errs = append(errs, "missing answer key")
		return errs
	}
	if q.Key.QuestionType() != q.Type {
		errs = append(errs, fmt.Sprintf("answer key is for %q, question is %q", q.Key.QuestionType(), q.Type))
		return errs
	}

	choiceIDs := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		choiceIDs[c.ID] = true
	}
	checkChoice := func(id string) {
		if len(q.Choices) > 0 && !choiceIDs[id] {
			errs = append(errs, fmt.Sprintf("answer references unknown choice %q", id))
		}
	}

	switch k := q.Key.(type) {
	case MultipleChoiceKey:
		if k.CorrectID == "" {
			errs = append(errs, "multiple-choice key needs a correct choice")
		}
		checkChoice(k.CorrectID)
	case MultipleSelectKey:
		if len(k.CorrectIDs) == 0 {
			errs = append(errs, "multiple-select key needs at least one correct choice")
		}
		for _, id := range k.CorrectIDs {
			checkChoice(id)
		}
	case FillInBlankKey:
		if len(k.Blanks) == 0 {
			errs = append(errs, "fill-in-blank key needs at least one blank")
		}
		for i, b := range k.Blanks {
			if b.ID == "" {
				errs = append(errs, fmt.Sprintf("blank %d has no id", i))
			}
			if len(b.Accepted) == 0 {
				errs = append(errs, fmt.Sprintf("blank %q has no accepted answers", b.ID))
			}
		}
	case ShortAnswerKey:
		if len(k.Accepted) == 0 {
			errs = append(errs, "short-answer key needs at least one accepted answer")
		}
	case MatchingKey:
		if len(k.Pairs) == 0 {
			errs = append(errs, "matching key needs at least one pair")
		}
	case OrderingKey:
		if len(k.Order) == 0 {
			errs = append(errs, "ordering key needs at least one item")
		}
	case HotspotKey:
		if len(k.CorrectIDs) == 0 {
			errs = append(errs, "hotspot key needs at least one correct spot")
		}
	case SliderKey:
		if k.Max < k.Min {
			errs = append(errs, fmt.Sprintf("slider max %g is below min %g", k.Max, k.Min))
		}
		if k.Tolerance < 0 {
			errs = append(errs, fmt.Sprintf("slider tolerance must be >= 0, got %g", k.Tolerance))
		}
	case LikertKey:
		if k.Scale < 2 {
			errs = append(errs, fmt.Sprintf("likert scale must be >= 2, got %d", k.Scale))
		}
	}

	return errs
}

// Validate returns a combined error describing all problems with q, or nil.
func Validate(q Question) error {
	errs := Issues(q)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("question %q invalid:\n  %s", q.ID, strings.Join(errs, "\n  "))
}
