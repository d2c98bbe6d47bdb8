package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"glucotrack/internal/domain"

	"github.com/lib/pq"
)

var _ domain.WeightRepository = (*DB)(nil)

// ListWeights returns the user's entries, newest day first.
func (d *DB) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, to_char(day, 'YYYY-MM-DD'), weight_kg, created_at FROM weight_entries WHERE user_id = $1 ORDER BY day DESC, id DESC;",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0)
	for rows.Next() {
		var e domain.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Day, &e.WeightKg, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddWeight inserts a new weight entry.
func (d *DB) AddWeight(ctx context.Context, userID int64, day string, weightKg float64, createdAt time.Time) (*domain.WeightEntry, error) {
	e := domain.WeightEntry{UserID: userID, Day: day, WeightKg: weightKg, CreatedAt: createdAt.UTC()}
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO weight_entries(user_id, day, weight_kg, created_at) VALUES($1, $2::date, $3, $4) RETURNING id;",
		userID, day, weightKg, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateWeight changes the day and weight of an entry owned by e.UserID.
func (d *DB) UpdateWeight(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
	err := d.sql.QueryRowContext(ctx,
		"UPDATE weight_entries SET day = $3::date, weight_kg = $4 WHERE id = $1 AND user_id = $2 RETURNING created_at;",
		e.ID, e.UserID, e.Day, e.WeightKg,
	).Scan(&e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteWeight deletes an entry owned by the user.
func (d *DB) DeleteWeight(ctx context.Context, userID, id int64) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = $1 AND user_id = $2;", id, userID)
	return requireRow(res, err)
}

// DeleteWeights deletes the listed entries owned by the user in a single
// statement.
func (d *DB) DeleteWeights(ctx context.Context, userID int64, ids []int64) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM weight_entries WHERE user_id = $1 AND id = ANY($2);", userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// requireRow maps a statement that touched no row to domain.ErrNotFound.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
