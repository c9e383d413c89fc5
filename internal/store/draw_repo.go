package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/pool"
)

type drawRepo struct {
	s *Store
}

func (r *drawRepo) Save(ctx context.Context, d *pool.DrawResult) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draw %q: %w", d.ID, err)
	}
	query, args := builder.Insert("draws").
		Columns("id", "pool_id", "learner_id", "data", "created_at").
		Values(d.ID, d.PoolID, d.LearnerID, string(data), formatTime(d.CreatedAt)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save draw %q: %w", d.ID, err)
	}
	return nil
}

func (r *drawRepo) Get(ctx context.Context, id string) (*pool.DrawResult, error) {
	var d pool.DrawResult
	if err := (documents{s: r.s, table: "draws"}).get(ctx, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *drawRepo) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*pool.DrawResult, error) {
	sel := builder.Select("data").
		From(builder.Table("draws")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}
	defer rows.Close()

	var out []*pool.DrawResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan draw: %w", err)
		}
		var d pool.DrawResult
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("decode draw: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *drawRepo) AppendResponse(ctx context.Context, drawID string, resp attempt.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	query, args := builder.Insert("responses").
		Columns("draw_id", "question_id", "attempt_number", "data", "submitted_at").
		Values(drawID, resp.QuestionID, resp.AttemptNumber, string(data), formatTime(resp.SubmittedAt)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save response for draw %q: %w", drawID, err)
	}
	return nil
}

func (r *drawRepo) Responses(ctx context.Context, drawID string) ([]attempt.Response, error) {
	query, args := builder.Select("data").
		From(builder.Table("responses")).
		Where(entsql.EQ("draw_id", drawID)).
		OrderBy("id").
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []attempt.Response
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		var resp attempt.Response
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *drawRepo) Finish(ctx context.Context, drawID string, at time.Time) error {
	query, args := builder.Update("draws").
		Set("finished_at", formatTime(at)).
		Where(entsql.And(
			entsql.EQ("id", drawID),
			entsql.EQ("finished_at", ""),
		)).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish draw %q: %w", drawID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("finish draw %q: %w", drawID, err)
	} else if n == 1 {
		return nil
	}

	// Nothing updated: either the draw is missing or already finished.
	if _, err := r.FinishedAt(ctx, drawID); err != nil {
		return err
	}
	return fmt.Errorf("draw %q: %w", drawID, ErrFinished)
}

func (r *drawRepo) Reopen(ctx context.Context, drawID string) error {
	query, args := builder.Update("draws").
		Set("finished_at", "").
		Where(entsql.EQ("id", drawID)).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("reopen draw %q: %w", drawID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draws %q: %w", drawID, ErrNotFound)
	}
	return nil
}

func (r *drawRepo) FinishedAt(ctx context.Context, drawID string) (time.Time, error) {
	query, args := builder.Select("finished_at").
		From(builder.Table("draws")).
		Where(entsql.EQ("id", drawID)).
		Query()

	var at string
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("draws %q: %w", drawID, ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query draw %q: %w", drawID, err)
	}
	if at == "" {
		return time.Time{}, nil
	}
	t, err := parseTime(at)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse finished_at of draw %q: %w", drawID, err)
	}
	return t, nil
}
