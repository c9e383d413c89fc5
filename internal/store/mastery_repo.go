package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizpool/internal/mastery"
)

type masteryRepo struct {
	s *Store
}

func (r *masteryRepo) Get(ctx context.Context, learnerID string) (*mastery.LearnerMastery, error) {
	query, args := builder.Select("data", "version").
		From(builder.Table("mastery")).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	var (
		data    string
		version int64
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return mastery.NewEmpty(learnerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mastery %q: %w", learnerID, err)
	}

	m := mastery.NewEmpty(learnerID)
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return nil, fmt.Errorf("decode mastery %q: %w", learnerID, err)
	}
	if m.Tags == nil || m.Types == nil {
		m = m.Clone()
	}
	m.Version = version
	return m, nil
}

func (r *masteryRepo) Save(ctx context.Context, m *mastery.LearnerMastery) error {
	now := r.s.now()
	next := *m
	next.Version = m.Version + 1
	next.UpdatedAt = now
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal mastery %q: %w", m.LearnerID, err)
	}

	var query string
	var args []any
	if m.Version == 0 {
		query, args = builder.Insert("mastery").
			Columns("learner_id", "data", "version", "updated_at").
			Values(m.LearnerID, string(data), next.Version, formatTime(now)).
			OnConflict(entsql.ConflictColumns("learner_id"), entsql.DoNothing()).
			Query()
	} else {
		query, args = builder.Update("mastery").
			Set("data", string(data)).
			Set("version", next.Version).
			Set("updated_at", formatTime(now)).
			Where(entsql.And(
				entsql.EQ("learner_id", m.LearnerID),
				entsql.EQ("version", m.Version),
			)).
			Query()
	}

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save mastery %q: %w", m.LearnerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save mastery %q: %w", m.LearnerID, err)
	}
	if n == 0 {
		return fmt.Errorf("save mastery %q at version %d: %w", m.LearnerID, m.Version, ErrConflict)
	}

	m.Version = next.Version
	m.UpdatedAt = now
	return nil
}
