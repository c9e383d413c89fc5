// Package pool defines question pools, validates them against their
// banks and draws randomized question sets from them.
package pool

import (
	"github.com/abhisek/quizpool/internal/bank"
	"github.com/abhisek/quizpool/internal/question"
)

// Source names a bank, optionally narrowed to one of its categories.
type Source struct {
	BankID     string `json:"bankId"`
	CategoryID string `json:"categoryId,omitempty"`
}

// Scoring configures how a pool's draws are graded.
type Scoring struct {
	// PassingScore is a percentage in [0, 100]. nil means every
	// attempt passes.
	PassingScore *float64 `json:"passingScore,omitempty"`

	// Modes overrides the answer key's scoring mode per question type.
	Modes map[question.Type]question.ScoringMode `json:"modes,omitempty"`
}

// Pool is a draw configuration over one or more banks.
type Pool struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Sources         []Source `json:"sources"`
	DrawCount       int      `json:"drawCount"`
	WeightByMastery bool     `json:"weightByMastery,omitempty"`
	Scoring         Scoring  `json:"scoring"`
}

// Banks indexes banks by id.
type Banks map[string]*bank.Bank

// Index builds a Banks lookup from a list.
func Index(banks ...*bank.Bank) Banks {
	out := make(Banks, len(banks))
	for _, b := range banks {
		if b != nil {
			out[b.ID] = b
		}
	}
	return out
}

// BankIDs returns the distinct bank ids referenced by the pool, in
// source order.
func (p *Pool) BankIDs() []string {
	seen := make(map[string]bool, len(p.Sources))
	var out []string
	for _, s := range p.Sources {
		if seen[s.BankID] {
			continue
		}
		seen[s.BankID] = true
		out = append(out, s.BankID)
	}
	return out
}

// candidate is a question available to a draw, with the bank that owns it.
type candidate struct {
	q      question.Question
	bankID string
}

// candidates collects the pool's questions in source order, then bank
// order. A question reachable through several sources is listed once,
// owned by the first source that yields it. Missing banks and categories
// are skipped.
func candidates(p *Pool, banks Banks) []candidate {
	seen := make(map[string]bool)
	var out []candidate
	for _, s := range p.Sources {
		b, ok := banks[s.BankID]
		if !ok || b == nil {
			continue
		}
		qs, err := b.QuestionsIn(s.CategoryID)
		if err != nil {
			continue
		}
		for _, q := range qs {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, candidate{q: q, bankID: b.ID})
		}
	}
	return out
}
