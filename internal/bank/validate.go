package bank

import (
	"fmt"

	"github.com/abhisek/quizpool/internal/question"
)

// Validate performs all structural checks on the bank and returns every
// problem found. An empty result means the bank is consistent.
func (b *Bank) Validate() []string {
	var errs []string

	if b.ID == "" {
		errs = append(errs, "bank has no id")
	}

	ids := make(map[string]bool, len(b.Questions))
	for i, q := range b.Questions {
		if q.ID != "" && ids[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question id: %q", q.ID))
		}
		ids[q.ID] = true
		for _, issue := range question.Issues(q) {
			errs = append(errs, fmt.Sprintf("question %d (%q): %s", i, q.ID, issue))
		}
	}

	catIDs := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		if catIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate category id: %q", c.ID))
		}
		catIDs[c.ID] = true
		for _, qid := range c.QuestionIDs {
			if !ids[qid] {
				errs = append(errs, fmt.Sprintf("category %q references nonexistent question %q", c.ID, qid))
			}
		}
	}

	return errs
}
