package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared by
// every event kind. Events of all kinds are ordered by this one counter,
// so "did the response come before the mastery change?" is a plain
// comparison.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

type eventRepo struct {
	s *Store
}

func (r *eventRepo) AppendDraw(ctx context.Context, data DrawEventData) error {
	return r.append(ctx, KindDraw, data.LearnerID, data.DrawID, data)
}

func (r *eventRepo) AppendResponse(ctx context.Context, data ResponseEventData) error {
	return r.append(ctx, KindResponse, data.LearnerID, data.DrawID, data)
}

func (r *eventRepo) AppendResult(ctx context.Context, data ResultEventData) error {
	return r.append(ctx, KindResult, data.LearnerID, data.DrawID, data)
}

func (r *eventRepo) AppendMastery(ctx context.Context, data MasteryEventData) error {
	return r.append(ctx, KindMastery, data.LearnerID, data.DrawID, data)
}

func (r *eventRepo) append(ctx context.Context, kind EventKind, learnerID, subjectID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	seqNum, err := r.s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder.Insert("events").
		Columns("sequence", "kind", "learner_id", "subject_id", "data", "created_at").
		Values(seqNum, string(kind), learnerID, subjectID, string(payload), formatTime(r.s.now())).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s event: %w", kind, err)
	}
	return nil
}

func (r *eventRepo) List(ctx context.Context, opts QueryOpts) ([]Event, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", formatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", formatTime(opts.To)))
	}
	if opts.Kind != "" {
		preds = append(preds, entsql.EQ("kind", string(opts.Kind)))
	}
	if opts.LearnerID != "" {
		preds = append(preds, entsql.EQ("learner_id", opts.LearnerID))
	}
	if opts.SubjectID != "" {
		preds = append(preds, entsql.EQ("subject_id", opts.SubjectID))
	}

	sel := builder.Select("sequence", "kind", "learner_id", "subject_id", "data", "created_at").
		From(builder.Table("events")).
		OrderBy("sequence")
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			kind    string
			data    string
			created string
		)
		if err := rows.Scan(&e.Sequence, &kind, &e.LearnerID, &e.SubjectID, &data, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.Data = json.RawMessage(data)
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("event %d: %w", e.Sequence, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
