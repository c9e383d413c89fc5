package bank

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizpool/internal/question"
)

var (
	ErrQuestionNotFound  = errors.New("question not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateQuestion = errors.New("duplicate question id")
	ErrInvalidQuestion   = errors.New("invalid question")
)

// Category is a named subset of a bank's questions. A question may
// belong to any number of categories.
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	QuestionIDs []string `json:"questionIds"`
}

// Bank is an ordered, named collection of authored questions. Every
// mutating method refreshes UpdatedAt.
type Bank struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Questions   []question.Question `json:"questions"`
	Categories  []Category          `json:"categories,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`

	// Now is the clock used for timestamps. nil means time.Now.
	Now func() time.Time `json:"-"`
}

// New creates an empty bank with a generated id.
func New(name string) *Bank {
	b := &Bank{
		ID:        uuid.New().String(),
		Name:      name,
		Questions: []question.Question{},
	}
	b.CreatedAt = b.now()
	b.UpdatedAt = b.CreatedAt
	return b
}

func (b *Bank) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

func (b *Bank) touch() {
	b.UpdatedAt = b.now()
}

func (b *Bank) indexOf(id string) int {
	return slices.IndexFunc(b.Questions, func(q question.Question) bool { return q.ID == id })
}

// Question returns the question with the given id.
func (b *Bank) Question(id string) (question.Question, bool) {
	i := b.indexOf(id)
	if i < 0 {
		return question.Question{}, false
	}
	return b.Questions[i], true
}

// AddQuestion appends a copy of q, assigning an id when q has none. It
// returns the stored question.
func (b *Bank) AddQuestion(q question.Question) (question.Question, error) {
	q = q.Clone()
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if b.indexOf(q.ID) >= 0 {
		return question.Question{}, fmt.Errorf("%w: %q", ErrDuplicateQuestion, q.ID)
	}
	if err := question.Validate(q); err != nil {
		return question.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	b.Questions = append(b.Questions, q)
	b.touch()
	return q.Clone(), nil
}

// UpdateQuestion replaces the question with q.ID, keeping its position.
func (b *Bank) UpdateQuestion(q question.Question) error {
	i := b.indexOf(q.ID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrQuestionNotFound, q.ID)
	}
	if err := question.Validate(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	b.Questions[i] = q.Clone()
	b.touch()
	return nil
}

// DeleteQuestion removes a question and its category memberships.
func (b *Bank) DeleteQuestion(id string) error {
	i := b.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrQuestionNotFound, id)
	}
	b.Questions = slices.Delete(b.Questions, i, i+1)
	for c := range b.Categories {
		b.Categories[c].QuestionIDs = slices.DeleteFunc(b.Categories[c].QuestionIDs, func(qid string) bool {
			return qid == id
		})
	}
	b.touch()
	return nil
}

// DuplicateQuestion inserts a copy of the question right after the
// original, under a new id and in the same categories.
func (b *Bank) DuplicateQuestion(id string) (question.Question, error) {
	i := b.indexOf(id)
	if i < 0 {
		return question.Question{}, fmt.Errorf("%w: %q", ErrQuestionNotFound, id)
	}
	dup := b.Questions[i].Clone()
	dup.ID = uuid.New().String()
	b.Questions = slices.Insert(b.Questions, i+1, dup)

	for c := range b.Categories {
		if slices.Contains(b.Categories[c].QuestionIDs, id) {
			b.Categories[c].QuestionIDs = append(b.Categories[c].QuestionIDs, dup.ID)
		}
	}
	b.touch()
	return dup, nil
}

// MoveQuestion moves a question to position to. Out-of-range positions
// are clamped to the ends of the bank.
func (b *Bank) MoveQuestion(id string, to int) error {
	i := b.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrQuestionNotFound, id)
	}
	q := b.Questions[i]
	b.Questions = slices.Delete(b.Questions, i, i+1)
	to = max(0, min(to, len(b.Questions)))
	b.Questions = slices.Insert(b.Questions, to, q)
	b.touch()
	return nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.Questions)
}
