// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"glucotrack/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu          sync.Mutex
	users       []domain.User
	profiles    map[int64]domain.Profile
	weights     []domain.WeightEntry
	glucoseLogs []domain.GlucoseLog
	sessions    map[string]*domain.Session

	// Counters only ever grow, so ids are never reused after a delete.
	userIDCounter    int64
	weightIDCounter  int64
	glucoseIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles: make(map[int64]domain.Profile),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.GlucoseRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

// Create stores a new user together with its initial profile.
func (db *DB) Create(ctx context.Context, user domain.User, profile domain.Profile) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateAccount
		}
	}

	db.userIDCounter++
	user.ID = db.userIDCounter
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	db.users = append(db.users, user)

	profile.UserID = user.ID
	db.profiles[user.ID] = profile
	return &user, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- ProfileRepository ---

// GetProfile returns the user's profile, or nil if there is none.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveProfile overwrites an existing profile.
func (db *DB) SaveProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.profiles[p.UserID]; !ok {
		return nil, domain.ErrNotFound
	}
	db.profiles[p.UserID] = p
	return &p, nil
}

// --- WeightRepository ---

// ListWeights returns the user's entries, newest day first.
func (db *DB) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.WeightEntry, 0)
	for _, w := range db.weights {
		if w.UserID == userID {
			result = append(result, w)
		}
	}
	domain.SortWeights(result)
	return result, nil
}

// AddWeight adds a weight entry.
func (db *DB) AddWeight(ctx context.Context, userID int64, day string, weightKg float64, createdAt time.Time) (*domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.weightIDCounter++
	entry := domain.WeightEntry{
		ID:        db.weightIDCounter,
		UserID:    userID,
		Day:       day,
		WeightKg:  weightKg,
		CreatedAt: createdAt.UTC(),
	}
	db.weights = append(db.weights, entry)
	return &entry, nil
}

// UpdateWeight changes the day and weight of an entry owned by e.UserID.
func (db *DB) UpdateWeight(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.weights {
		w := &db.weights[i]
		if w.ID == e.ID && w.UserID == e.UserID {
			w.Day = e.Day
			w.WeightKg = e.WeightKg
			ret := *w
			return &ret, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteWeight deletes an entry owned by the user.
func (db *DB) DeleteWeight(ctx context.Context, userID, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, w := range db.weights {
		if w.ID == id && w.UserID == userID {
			db.weights = append(db.weights[:i], db.weights[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// DeleteWeights deletes the listed entries owned by the user.
func (db *DB) DeleteWeights(ctx context.Context, userID int64, ids []int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	drop := idSet(ids)
	kept := db.weights[:0]
	var n int64
	for _, w := range db.weights {
		if w.UserID == userID && drop[w.ID] {
			n++
			continue
		}
		kept = append(kept, w)
	}
	db.weights = kept
	return n, nil
}

// --- GlucoseRepository ---

// ListGlucoseLogs returns the user's logs, newest first.
func (db *DB) ListGlucoseLogs(ctx context.Context, userID int64) ([]domain.GlucoseLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.GlucoseLog, 0)
	for _, l := range db.glucoseLogs {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	domain.SortGlucoseLogs(result)
	return result, nil
}

// AddGlucoseLog adds a glucose log for l.UserID.
func (db *DB) AddGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.glucoseIDCounter++
	l.ID = db.glucoseIDCounter
	l.Timestamp = l.Timestamp.UTC()
	db.glucoseLogs = append(db.glucoseLogs, l)
	return &l, nil
}

// UpdateGlucoseLog replaces a log owned by l.UserID.
func (db *DB) UpdateGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.glucoseLogs {
		cur := &db.glucoseLogs[i]
		if cur.ID == l.ID && cur.UserID == l.UserID {
			l.Timestamp = l.Timestamp.UTC()
			*cur = l
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteGlucoseLog deletes a log owned by the user.
func (db *DB) DeleteGlucoseLog(ctx context.Context, userID, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, l := range db.glucoseLogs {
		if l.ID == id && l.UserID == userID {
			db.glucoseLogs = append(db.glucoseLogs[:i], db.glucoseLogs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// DeleteGlucoseLogs deletes the listed logs owned by the user.
func (db *DB) DeleteGlucoseLogs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	drop := idSet(ids)
	kept := db.glucoseLogs[:0]
	var n int64
	for _, l := range db.glucoseLogs {
		if l.UserID == userID && drop[l.ID] {
			n++
			continue
		}
		kept = append(kept, l)
	}
	db.glucoseLogs = kept
	return n, nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		ret := *s
		return &ret, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	var n int64
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}
