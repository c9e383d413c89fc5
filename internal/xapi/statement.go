// Package xapi reports draws, responses, results and mastery changes to a
// Learning Record Store as xAPI statements.
package xapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/question"
)

// Version is the xAPI version sent with every request.
const Version = "1.0.3"

// ADL verbs.
var (
	VerbAttempted  = Verb{ID: "http://adlnet.gov/expapi/verbs/attempted", Display: display("attempted")}
	VerbAnswered   = Verb{ID: "http://adlnet.gov/expapi/verbs/answered", Display: display("answered")}
	VerbPassed     = Verb{ID: "http://adlnet.gov/expapi/verbs/passed", Display: display("passed")}
	VerbFailed     = Verb{ID: "http://adlnet.gov/expapi/verbs/failed", Display: display("failed")}
	VerbProgressed = Verb{ID: "http://adlnet.gov/expapi/verbs/progressed", Display: display("progressed")}
)

// Activity types.
const (
	ActivityAssessment  = "http://adlnet.gov/expapi/activities/assessment"
	ActivityInteraction = "http://adlnet.gov/expapi/activities/cmi.interaction"
	ActivityObjective   = "http://adlnet.gov/expapi/activities/objective"
)

func display(s string) map[string]string {
	return map[string]string{"en-US": s}
}

type Statement struct {
	ID        string    `json:"id"`
	Actor     Actor     `json:"actor"`
	Verb      Verb      `json:"verb"`
	Object    Object    `json:"object"`
	Result    *Result   `json:"result,omitempty"`
	Context   *Context  `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Actor struct {
	ObjectType string  `json:"objectType"`
	Account    Account `json:"account"`
}

type Account struct {
	HomePage string `json:"homePage"`
	Name     string `json:"name"`
}

type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display"`
}

type Object struct {
	ObjectType string      `json:"objectType"`
	ID         string      `json:"id"`
	Definition *Definition `json:"definition,omitempty"`
}

type Definition struct {
	Name            map[string]string `json:"name,omitempty"`
	Type            string            `json:"type,omitempty"`
	InteractionType string            `json:"interactionType,omitempty"`
}

type Score struct {
	Scaled float64 `json:"scaled"`
	Raw    float64 `json:"raw"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Result struct {
	Score      *Score `json:"score,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Completion *bool  `json:"completion,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

type Context struct {
	Registration string         `json:"registration,omitempty"`
	Extensions   map[string]any `json:"extensions,omitempty"`
}

// Builder turns domain values into statements.
type Builder struct {
	ActivityBase string

	// Now stamps statements. nil means time.Now.
	Now func() time.Time
}

// NewBuilder returns a Builder for cfg's activity namespace.
func NewBuilder(cfg Config) Builder {
	return Builder{ActivityBase: strings.TrimSuffix(cfg.ActivityBase, "/")}
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b Builder) iri(kind, id string) string {
	return b.ActivityBase + "/" + kind + "/" + id
}

func (b Builder) actor(learnerID string) Actor {
	return Actor{
		ObjectType: "Agent",
		Account:    Account{HomePage: b.ActivityBase, Name: learnerID},
	}
}

func (b Builder) statement(learnerID string, verb Verb, obj Object) Statement {
	return Statement{
		ID:        uuid.New().String(),
		Actor:     b.actor(learnerID),
		Verb:      verb,
		Object:    obj,
		Timestamp: b.now(),
	}
}

func (b Builder) extension(name string) string {
	return b.ActivityBase + "/extensions/" + name
}

// DrawStatement records that a learner started an attempt on a pool.
func (b Builder) DrawStatement(d *pool.DrawResult, p *pool.Pool) Statement {
	name := d.PoolID
	if p != nil && p.Name != "" {
		name = p.Name
	}
	st := b.statement(d.LearnerID, VerbAttempted, Object{
		ObjectType: "Activity",
		ID:         b.iri("pools", d.PoolID),
		Definition: &Definition{Name: display(name), Type: ActivityAssessment},
	})

	ids := make([]string, len(d.Questions))
	for i, q := range d.Questions {
		ids[i] = q.ID
	}
	st.Context = &Context{
		Registration: d.ID,
		Extensions: map[string]any{
			b.extension("seed"):      strconv.FormatUint(d.Seed, 10),
			b.extension("questions"): ids,
		},
	}
	return st
}

// ResponseStatement records one graded answer.
func (b Builder) ResponseStatement(d *pool.DrawResult, r attempt.Response) Statement {
	obj := Object{
		ObjectType: "Activity",
		ID:         b.iri("questions", r.QuestionID),
		Definition: &Definition{Type: ActivityInteraction},
	}
	if q, ok := d.Question(r.QuestionID); ok {
		obj.Definition.Name = display(q.Prompt)
		obj.Definition.InteractionType = interactionType(q.Type)
	}

	st := b.statement(d.LearnerID, VerbAnswered, obj)
	success := r.IsCorrect
	st.Result = &Result{
		Score:    &Score{Scaled: r.Score, Raw: r.PointsEarned, Min: 0, Max: maxPoints(d, r.QuestionID)},
		Success:  &success,
		Duration: FormatDuration(r.Duration),
	}
	st.Context = &Context{
		Registration: d.ID,
		Extensions:   map[string]any{b.extension("attempt"): r.AttemptNumber},
	}
	return st
}

// ResultStatement records the outcome of a whole draw.
func (b Builder) ResultStatement(d *pool.DrawResult, res *attempt.PoolResults) Statement {
	verb := VerbFailed
	if res.Passed {
		verb = VerbPassed
	}
	st := b.statement(d.LearnerID, verb, Object{
		ObjectType: "Activity",
		ID:         b.iri("pools", d.PoolID),
		Definition: &Definition{Type: ActivityAssessment},
	})

	success, complete := res.Passed, len(res.Responses) == res.QuestionCount
	st.Result = &Result{
		Score:      &Score{Scaled: res.Percentage / 100, Raw: res.TotalScore, Min: 0, Max: res.MaxScore},
		Success:    &success,
		Completion: &complete,
		Duration:   FormatDuration(res.Duration),
	}
	st.Context = &Context{Registration: d.ID}
	return st
}

// MasteryStatement records a proficiency level change.
func (b Builder) MasteryStatement(learnerID, drawID string, tr mastery.Transition, score float64) Statement {
	st := b.statement(learnerID, VerbProgressed, Object{
		ObjectType: "Activity",
		ID:         b.iri(tr.Kind+"s", tr.Key),
		Definition: &Definition{Name: display(tr.Key), Type: ActivityObjective},
	})
	st.Result = &Result{Score: &Score{Scaled: score, Raw: score, Min: 0, Max: 1}}
	st.Context = &Context{
		Registration: drawID,
		Extensions: map[string]any{
			b.extension("from-level"): string(tr.From),
			b.extension("to-level"):   string(tr.To),
		},
	}
	return st
}

func maxPoints(d *pool.DrawResult, questionID string) float64 {
	if q, ok := d.Question(questionID); ok {
		return q.PointValue()
	}
	return 0
}

// interactionType maps a question type to the closest cmi.interaction type.
func interactionType(t question.Type) string {
	switch t {
	case question.TypeMultipleChoice, question.TypeMultipleSelect, question.TypeHotspot:
		return "choice"
	case question.TypeTrueFalse:
		return "true-false"
	case question.TypeFillInBlank, question.TypeShortAnswer:
		return "fill-in"
	case question.TypeMatching:
		return "matching"
	case question.TypeOrdering, question.TypeRanking:
		return "sequencing"
	case question.TypeSlider:
		return "numeric"
	case question.TypeLikert:
		return "likert"
	case question.TypeEssay:
		return "long-fill-in"
	}
	return "other"
}

// FormatDuration renders d as an ISO 8601 duration in seconds, e.g. PT12.5S.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return "PT" + strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "S"
}
