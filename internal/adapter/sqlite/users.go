package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"glucotrack/internal/domain"
)

const userColumns = "id, email, display_name, password_hash, created_at"

// GetByEmail retrieves a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	var created int64
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = fromUnix(created)
	return &u, nil
}

// Create inserts the user and its profile in one transaction.
func (s *Store) Create(ctx context.Context, user domain.User, profile domain.Profile) (*domain.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.Email, user.DisplayName, user.PasswordHash, unix(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateAccount
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id, name, birthdate, height_cm, updated_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, profile.Name, profile.Birthdate, profile.HeightCm, unix(profile.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	user.CreatedAt = fromUnix(unix(user.CreatedAt))
	return &user, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// GetProfile returns the user's profile, or nil if there is none.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, name, birthdate, height_cm, updated_at FROM profiles WHERE user_id = ?",
		userID,
	).Scan(&p.UserID, &p.Name, &p.Birthdate, &p.HeightCm, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = fromUnix(updated)
	return &p, nil
}

// SaveProfile overwrites an existing profile.
func (s *Store) SaveProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET name = ?, birthdate = ?, height_cm = ?, updated_at = ? WHERE user_id = ?",
		p.Name, p.Birthdate, p.HeightCm, unix(p.UpdatedAt), p.UserID,
	)
	if err := requireRow(res, err); err != nil {
		return nil, err
	}
	p.UpdatedAt = fromUnix(unix(p.UpdatedAt))
	return &p, nil
}

// SessionRepo implements session persistence on a Store.
type SessionRepo struct {
	store *Store
}

// NewSessionRepo wraps a Store as a SessionRepository.
func NewSessionRepo(store *Store) *SessionRepo {
	return &SessionRepo{store: store}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.store.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		token, userID, unix(expiresAt), unix(time.Now()),
	)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var sess domain.Session
	var expires, created int64
	err := r.store.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?",
		token,
	).Scan(&sess.Token, &sess.UserID, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = fromUnix(expires)
	sess.CreatedAt = fromUnix(created)
	return &sess, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", unix(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
