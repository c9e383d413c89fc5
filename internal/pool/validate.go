package pool

import (
	"fmt"
	"strings"
)

// ValidationError is returned by Draw when the pool fails validation.
type ValidationError struct {
	PoolID string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pool %q invalid:\n  %s", e.PoolID, strings.Join(e.Issues, "\n  "))
}

// Validate checks a pool against the banks it draws from. Every check runs
// independently and all problems are returned. An empty result means the
// pool can be drawn from.
func Validate(p *Pool, banks Banks) []string {
	var errs []string

	if len(p.Sources) == 0 {
		errs = append(errs, "Pool must have at least one source")
	}

	for _, s := range p.Sources {
		b, ok := banks[s.BankID]
		if !ok || b == nil {
			errs = append(errs, fmt.Sprintf("Bank not found: %s", s.BankID))
			continue
		}
		if s.CategoryID != "" {
			if _, ok := b.CategoryByID(s.CategoryID); !ok {
				errs = append(errs, fmt.Sprintf("Category not found: %s in bank %s", s.CategoryID, s.BankID))
			}
		}
	}

	if p.DrawCount <= 0 {
		errs = append(errs, "Draw count must be greater than 0")
	} else if available := len(candidates(p, banks)); p.DrawCount > available {
		errs = append(errs, fmt.Sprintf("Draw count exceeds available questions (%d > %d)", p.DrawCount, available))
	}

	if ps := p.Scoring.PassingScore; ps != nil && (*ps < 0 || *ps > 100) {
		errs = append(errs, fmt.Sprintf("Passing score must be between 0 and 100, got %g", *ps))
	}

	return errs
}
