package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// documents is a table of JSON documents keyed by id.
type documents struct {
	s     *Store
	table string
}

func (d documents) put(ctx context.Context, id, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s %q: %w", d.table, id, err)
	}
	query, args := builder.Insert(d.table).
		Columns("id", "name", "data", "updated_at").
		Values(id, name, string(data), formatTime(d.s.now())).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := d.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s %q: %w", d.table, id, err)
	}
	return nil
}

func (d documents) get(ctx context.Context, id string, v any) error {
	query, args := builder.Select("data").
		From(builder.Table(d.table)).
		Where(entsql.EQ("id", id)).
		Query()

	var data string
	err := d.s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", d.table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query %s %q: %w", d.table, id, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode %s %q: %w", d.table, id, err)
	}
	return nil
}

// list decodes every document ordered by name, calling each with a
// decoder for the row.
func (d documents) list(ctx context.Context, each func(data []byte) error) error {
	query, args := builder.Select("data").
		From(builder.Table(d.table)).
		OrderBy("name", "id").
		Query()

	rows, err := d.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list %s: %w", d.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scan %s: %w", d.table, err)
		}
		if err := each([]byte(data)); err != nil {
			return fmt.Errorf("decode %s: %w", d.table, err)
		}
	}
	return rows.Err()
}

func (d documents) delete(ctx context.Context, id string) error {
	query, args := builder.Delete(d.table).Where(entsql.EQ("id", id)).Query()
	res, err := d.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", d.table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %q: %w", d.table, id, ErrNotFound)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
