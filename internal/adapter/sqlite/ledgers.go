package sqlite

import (
	"context"
	"time"

	"glucotrack/internal/domain"
)

// ListWeights returns the user's entries, newest day first.
func (s *Store) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, day, weight_kg, created_at FROM weight_entries WHERE user_id = ? ORDER BY day DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0)
	for rows.Next() {
		var e domain.WeightEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Day, &e.WeightKg, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = fromUnix(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddWeight inserts a new weight entry.
func (s *Store) AddWeight(ctx context.Context, userID int64, day string, weightKg float64, createdAt time.Time) (*domain.WeightEntry, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO weight_entries (user_id, day, weight_kg, created_at) VALUES (?, ?, ?, ?)",
		userID, day, weightKg, unix(createdAt),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.WeightEntry{ID: id, UserID: userID, Day: day, WeightKg: weightKg, CreatedAt: fromUnix(unix(createdAt))}, nil
}

// UpdateWeight changes the day and weight of an entry owned by e.UserID.
func (s *Store) UpdateWeight(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE weight_entries SET day = ?, weight_kg = ? WHERE id = ? AND user_id = ?",
		e.Day, e.WeightKg, e.ID, e.UserID,
	)
	if err := requireRow(res, err); err != nil {
		return nil, err
	}
	var created int64
	if err := s.db.QueryRowContext(ctx, "SELECT created_at FROM weight_entries WHERE id = ?", e.ID).Scan(&created); err != nil {
		return nil, err
	}
	e.CreatedAt = fromUnix(created)
	return &e, nil
}

// DeleteWeight deletes an entry owned by the user.
func (s *Store) DeleteWeight(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = ? AND user_id = ?", id, userID)
	return requireRow(res, err)
}

// DeleteWeights deletes the listed entries owned by the user in a single
// statement.
func (s *Store) DeleteWeights(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM weight_entries WHERE user_id = ? AND id IN ("+in+")",
		append([]any{userID}, args...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListGlucoseLogs returns the user's logs, newest first.
func (s *Store) ListGlucoseLogs(ctx context.Context, userID int64) ([]domain.GlucoseLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, logged_at, meal_type, glycemia, dosage FROM glucose_logs WHERE user_id = ? ORDER BY logged_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.GlucoseLog, 0)
	for rows.Next() {
		var l domain.GlucoseLog
		var logged int64
		var meal string
		if err := rows.Scan(&l.ID, &l.UserID, &logged, &meal, &l.Glycemia, &l.Dosage); err != nil {
			return nil, err
		}
		l.Timestamp = fromUnix(logged)
		l.MealType = domain.MealType(meal)
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddGlucoseLog inserts a log for l.UserID.
func (s *Store) AddGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO glucose_logs (user_id, logged_at, meal_type, glycemia, dosage) VALUES (?, ?, ?, ?, ?)",
		l.UserID, unix(l.Timestamp), string(l.MealType), l.Glycemia, l.Dosage,
	)
	if err != nil {
		return nil, err
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	l.Timestamp = fromUnix(unix(l.Timestamp))
	return &l, nil
}

// UpdateGlucoseLog replaces a log owned by l.UserID.
func (s *Store) UpdateGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE glucose_logs SET logged_at = ?, meal_type = ?, glycemia = ?, dosage = ? WHERE id = ? AND user_id = ?",
		unix(l.Timestamp), string(l.MealType), l.Glycemia, l.Dosage, l.ID, l.UserID,
	)
	if err := requireRow(res, err); err != nil {
		return nil, err
	}
	l.Timestamp = fromUnix(unix(l.Timestamp))
	return &l, nil
}

// DeleteGlucoseLog deletes a log owned by the user.
func (s *Store) DeleteGlucoseLog(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM glucose_logs WHERE id = ? AND user_id = ?", id, userID)
	return requireRow(res, err)
}

// DeleteGlucoseLogs deletes the listed logs owned by the user in a single
// statement.
func (s *Store) DeleteGlucoseLogs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM glucose_logs WHERE user_id = ? AND id IN ("+in+")",
		append([]any{userID}, args...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
