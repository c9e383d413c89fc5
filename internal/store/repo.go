package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/bank"
	"github.com/abhisek/quizpool/internal/mastery"
	"github.com/abhisek/quizpool/internal/pool"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by MasteryRepo.Save when the stored record
	// changed since it was read.
	ErrConflict = errors.New("version conflict")

	// ErrFinished is returned by DrawRepo.Finish when the draw was
	// already finished.
	ErrFinished = errors.New("draw already finished")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	Kind      EventKind // exact kind ("" = any)
	LearnerID string    // exact learner ("" = any)
	SubjectID string    // exact subject ("" = any)
}

// BankRepo stores question banks as documents.
type BankRepo interface {
	Save(ctx context.Context, b *bank.Bank) error
	Get(ctx context.Context, id string) (*bank.Bank, error)
	List(ctx context.Context) ([]*bank.Bank, error)
	Delete(ctx context.Context, id string) error
}

// PoolRepo stores pools as documents.
type PoolRepo interface {
	Save(ctx context.Context, p *pool.Pool) error
	Get(ctx context.Context, id string) (*pool.Pool, error)
	List(ctx context.Context) ([]*pool.Pool, error)
	Delete(ctx context.Context, id string) error
}

// DrawRepo stores realized draws and the responses submitted against them.
type DrawRepo interface {
	Save(ctx context.Context, d *pool.DrawResult) error
	Get(ctx context.Context, id string) (*pool.DrawResult, error)

	// ListByLearner returns a learner's draws, newest first.
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]*pool.DrawResult, error)

	// AppendResponse records one submission. Responses are never updated.
	AppendResponse(ctx context.Context, drawID string, r attempt.Response) error

	// Responses returns every submission for a draw in submission order.
	Responses(ctx context.Context, drawID string) ([]attempt.Response, error)

	// Finish marks an open draw finished at the given time. A draw can be
	// finished once; later calls return ErrFinished.
	Finish(ctx context.Context, drawID string, at time.Time) error

	// Reopen clears the finished mark.
	Reopen(ctx context.Context, drawID string) error

	// FinishedAt returns when the draw was finished, or the zero time if
	// it is still open.
	FinishedAt(ctx context.Context, drawID string) (time.Time, error)
}

// MasteryRepo stores learner mastery with optimistic concurrency.
type MasteryRepo interface {
	// Get returns the learner's mastery, or an empty record with
	// Version 0 if none has been saved.
	Get(ctx context.Context, learnerID string) (*mastery.LearnerMastery, error)

	// Save writes m only if the stored version still equals m.Version,
	// then increments m.Version. Otherwise it returns ErrConflict.
	Save(ctx context.Context, m *mastery.LearnerMastery) error
}

// EventKind identifies the payload of an Event.
type EventKind string

const (
	KindDraw     EventKind = "draw"
	KindResponse EventKind = "response"
	KindResult   EventKind = "result"
	KindMastery  EventKind = "mastery"
)

// Event is one entry of the append-only event log.
type Event struct {
	Sequence  int64
	Kind      EventKind
	LearnerID string
	SubjectID string
	Data      json.RawMessage
	CreatedAt time.Time
}

// DrawEventData captures a realized draw.
type DrawEventData struct {
	DrawID      string   `json:"drawId"`
	PoolID      string   `json:"poolId"`
	LearnerID   string   `json:"learnerId"`
	Seed        uint64   `json:"seed"`
	QuestionIDs []string `json:"questionIds"`
	Weighted    bool     `json:"weighted"`
}

// ResponseEventData captures one graded submission.
type ResponseEventData struct {
	DrawID        string  `json:"drawId"`
	LearnerID     string  `json:"learnerId"`
	QuestionID    string  `json:"questionId"`
	AttemptNumber int     `json:"attemptNumber"`
	Correct       bool    `json:"correct"`
	Score         float64 `json:"score"`
	DurationMs    int64   `json:"durationMs"`
}

// ResultEventData captures an aggregated draw result.
type ResultEventData struct {
	DrawID       string  `json:"drawId"`
	PoolID       string  `json:"poolId"`
	LearnerID    string  `json:"learnerId"`
	TotalScore   float64 `json:"totalScore"`
	MaxScore     float64 `json:"maxScore"`
	Percentage   float64 `json:"percentage"`
	Passed       bool    `json:"passed"`
	CorrectCount int     `json:"correctCount"`
}

// MasteryEventData captures a proficiency level change.
type MasteryEventData struct {
	LearnerID string  `json:"learnerId"`
	DrawID    string  `json:"drawId,omitempty"`
	Scope     string  `json:"scope"` // "tag" or "type"
	Key       string  `json:"key"`
	FromLevel string  `json:"fromLevel"`
	ToLevel   string  `json:"toLevel"`
	Score     float64 `json:"score"`
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendDraw(ctx context.Context, data DrawEventData) error
	AppendResponse(ctx context.Context, data ResponseEventData) error
	AppendResult(ctx context.Context, data ResultEventData) error
	AppendMastery(ctx context.Context, data MasteryEventData) error

	// List returns events in sequence order.
	List(ctx context.Context, opts QueryOpts) ([]Event, error)
}
