package postgres

import (
	"context"
	"database/sql"
	"errors"

	"glucotrack/internal/domain"
)

var _ domain.ProfileRepository = (*DB)(nil)

// GetProfile returns the user's profile, or nil if there is none.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, name, COALESCE(to_char(birthdate, 'YYYY-MM-DD'), ''), height_cm, updated_at FROM profiles WHERE user_id = $1",
		userID,
	).Scan(&p.UserID, &p.Name, &p.Birthdate, &p.HeightCm, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile overwrites an existing profile.
func (d *DB) SaveProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE profiles SET name = $2, birthdate = NULLIF($3, '')::date, height_cm = $4, updated_at = $5 WHERE user_id = $1",
		p.UserID, p.Name, p.Birthdate, p.HeightCm, p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
