package postgres

import (
	"context"

	"glucotrack/internal/domain"

	"github.com/lib/pq"
)

var _ domain.GlucoseRepository = (*DB)(nil)

// ListGlucoseLogs returns the user's logs, newest first.
func (d *DB) ListGlucoseLogs(ctx context.Context, userID int64) ([]domain.GlucoseLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, logged_at, meal_type, glycemia, dosage FROM glucose_logs WHERE user_id = $1 ORDER BY logged_at DESC, id DESC;",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.GlucoseLog, 0)
	for rows.Next() {
		var l domain.GlucoseLog
		var meal string
		if err := rows.Scan(&l.ID, &l.UserID, &l.Timestamp, &meal, &l.Glycemia, &l.Dosage); err != nil {
			return nil, err
		}
		l.MealType = domain.MealType(meal)
		l.Timestamp = l.Timestamp.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddGlucoseLog inserts a log for l.UserID.
func (d *DB) AddGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	l.Timestamp = l.Timestamp.UTC()
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO glucose_logs(user_id, logged_at, meal_type, glycemia, dosage) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		l.UserID, l.Timestamp, string(l.MealType), l.Glycemia, l.Dosage,
	).Scan(&l.ID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateGlucoseLog replaces a log owned by l.UserID.
func (d *DB) UpdateGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	l.Timestamp = l.Timestamp.UTC()
	res, err := d.sql.ExecContext(ctx,
		"UPDATE glucose_logs SET logged_at = $3, meal_type = $4, glycemia = $5, dosage = $6 WHERE id = $1 AND user_id = $2;",
		l.ID, l.UserID, l.Timestamp, string(l.MealType), l.Glycemia, l.Dosage,
	)
	if err := requireRow(res, err); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteGlucoseLog deletes a log owned by the user.
func (d *DB) DeleteGlucoseLog(ctx context.Context, userID, id int64) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM glucose_logs WHERE id = $1 AND user_id = $2;", id, userID)
	return requireRow(res, err)
}

// DeleteGlucoseLogs deletes the listed logs owned by the user in a single
// statement.
func (d *DB) DeleteGlucoseLogs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM glucose_logs WHERE user_id = $1 AND id = ANY($2);", userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
