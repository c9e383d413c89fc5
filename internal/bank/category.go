package bank

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/abhisek/quizpool/internal/question"
)

func (b *Bank) categoryIndex(id string) int {
	return slices.IndexFunc(b.Categories, func(c Category) bool { return c.ID == id })
}

// CategoryByID returns the category with the given id.
func (b *Bank) CategoryByID(id string) (Category, bool) {
	i := b.categoryIndex(id)
	if i < 0 {
		return Category{}, false
	}
	return b.Categories[i], true
}

// AddCategory creates an empty category.
func (b *Bank) AddCategory(name string) Category {
	c := Category{ID: uuid.New().String(), Name: name, QuestionIDs: []string{}}
	b.Categories = append(b.Categories, c)
	b.touch()
	return c
}

// DeleteCategory removes a category. Its questions stay in the bank.
func (b *Bank) DeleteCategory(id string) error {
	i := b.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrCategoryNotFound, id)
	}
	b.Categories = slices.Delete(b.Categories, i, i+1)
	b.touch()
	return nil
}

// AssignCategory adds a question to a category. Assigning twice is a no-op.
func (b *Bank) AssignCategory(categoryID, questionID string) error {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrCategoryNotFound, categoryID)
	}
	if b.indexOf(questionID) < 0 {
		return fmt.Errorf("%w: %q", ErrQuestionNotFound, questionID)
	}
	if !slices.Contains(b.Categories[i].QuestionIDs, questionID) {
		b.Categories[i].QuestionIDs = append(b.Categories[i].QuestionIDs, questionID)
	}
	b.touch()
	return nil
}

// UnassignCategory removes a question from a category.
func (b *Bank) UnassignCategory(categoryID, questionID string) error {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrCategoryNotFound, categoryID)
	}
	b.Categories[i].QuestionIDs = slices.DeleteFunc(b.Categories[i].QuestionIDs, func(id string) bool {
		return id == questionID
	})
	b.touch()
	return nil
}

// QuestionsIn returns the questions of a category in bank order. An empty
// categoryID selects the whole bank.
func (b *Bank) QuestionsIn(categoryID string) ([]question.Question, error) {
	if categoryID == "" {
		return slices.Clone(b.Questions), nil
	}
	c, ok := b.CategoryByID(categoryID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, categoryID)
	}
	members := make(map[string]bool, len(c.QuestionIDs))
	for _, id := range c.QuestionIDs {
		members[id] = true
	}
	var out []question.Question
	for _, q := range b.Questions {
		if members[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}
