package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"glucotrack/internal/app"
	"glucotrack/internal/domain"
)

// Snapshot is a point-in-time copy of the State. Lists are newest first.
type Snapshot struct {
	AuthUser      *domain.User
	Profile       *domain.Profile
	WeightHistory []domain.WeightEntry
	GlucoseLogs   []domain.GlucoseLog
}

// LoggedIn reports whether the snapshot belongs to a signed-in user.
func (s Snapshot) LoggedIn() bool {
	return s.AuthUser != nil
}

// State holds the signed-in user's data for UI binding. Every mutation
// waits for the backend and only then merges the result locally, so a
// failed call leaves the State untouched. Mutations are serialized.
type State struct {
	backend Backend

	// op serializes mutations, including their backend round trip.
	op sync.Mutex

	mu      sync.RWMutex
	user    *domain.User
	profile *domain.Profile
	weights []domain.WeightEntry
	glucose []domain.GlucoseLog

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// NewState creates an empty, logged-out State.
func NewState(backend Backend) *State {
	return &State{backend: backend, subscribers: make(map[int]func(Snapshot))}
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		WeightHistory: slices.Clone(s.weights),
		GlucoseLogs:   slices.Clone(s.glucose),
	}
	if s.user != nil {
		u := *s.user
		snap.AuthUser = &u
	}
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	return snap
}

// update applies fn under the data lock and notifies subscribers.
func (s *State) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *State) clear() {
	s.update(func() {
		s.user = nil
		s.profile = nil
		s.weights = nil
		s.glucose = nil
	})
}

// requireUser fails fast while logged out.
func (s *State) requireUser() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return app.ErrNotAuthenticated
	}
	return nil
}

// checkSession drops local state when the server no longer knows the
// session.
func (s *State) checkSession(err error) error {
	if errors.Is(err, app.ErrNotAuthenticated) {
		s.clear()
	}
	return err
}

// Signup creates an account, signs in and loads its data.
func (s *State) Signup(ctx context.Context, email, password, name string) error {
	s.op.Lock()
	defer s.op.Unlock()

	user, err := s.backend.Signup(ctx, email, password, name)
	if err != nil {
		return err
	}
	return s.signIn(ctx, user)
}

// Login signs in and loads the user's data.
func (s *State) Login(ctx context.Context, email, password string) error {
	s.op.Lock()
	defer s.op.Unlock()

	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.signIn(ctx, user)
}

// signIn loads the data of a freshly authenticated user. The session now
// belongs to user, so a failed load leaves the container empty rather than
// showing whoever was signed in before.
func (s *State) signIn(ctx context.Context, user *domain.User) error {
	if err := s.load(ctx, user); err != nil {
		s.clear()
		return err
	}
	return nil
}

// Logout ends the session and clears all local data, even when the server
// call fails.
func (s *State) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	err := s.backend.Logout(ctx)
	s.clear()
	return err
}

// Refresh resolves the current session and reloads everything from the
// backend. It can resume a session after a restart.
func (s *State) Refresh(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		return s.checkSession(err)
	}
	return s.load(ctx, user)
}

// load fetches every collection and swaps them in together.
func (s *State) load(ctx context.Context, user *domain.User) error {
	profile, err := s.backend.GetProfile(ctx)
	if err != nil {
		return s.checkSession(err)
	}
	weights, err := s.backend.ListWeights(ctx)
	if err != nil {
		return s.checkSession(err)
	}
	glucose, err := s.backend.ListGlucoseLogs(ctx)
	if err != nil {
		return s.checkSession(err)
	}

	domain.SortWeights(weights)
	domain.SortGlucoseLogs(glucose)
	s.update(func() {
		s.user = user
		s.profile = profile
		s.weights = weights
		s.glucose = glucose
	})
	return nil
}

// UpdateProfile changes the supplied profile fields.
func (s *State) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) error {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return err
	}

	profile, err := s.backend.UpdateProfile(ctx, u)
	if err != nil {
		return s.checkSession(err)
	}
	s.update(func() { s.profile = profile })
	return nil
}

// AddWeight records a weight and merges it into the history.
func (s *State) AddWeight(ctx context.Context, in app.WeightInput) (*domain.WeightEntry, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	entry, err := s.backend.AddWeight(ctx, in)
	if err != nil {
		return nil, s.checkSession(err)
	}
	s.update(func() { s.weights = upsertWeight(s.weights, *entry) })
	return entry, nil
}

// UpdateWeight replaces a weight entry.
func (s *State) UpdateWeight(ctx context.Context, id int64, in app.WeightInput) (*domain.WeightEntry, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	entry, err := s.backend.UpdateWeight(ctx, id, in)
	if err != nil {
		return nil, s.checkSession(err)
	}
	s.update(func() { s.weights = upsertWeight(s.weights, *entry) })
	return entry, nil
}

// DeleteWeight removes a weight entry.
func (s *State) DeleteWeight(ctx context.Context, id int64) error {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return err
	}

	if err := s.backend.DeleteWeight(ctx, id); err != nil {
		return s.checkSession(err)
	}
	s.update(func() {
		s.weights = slices.DeleteFunc(s.weights, func(e domain.WeightEntry) bool { return e.ID == id })
	})
	return nil
}

// DeleteWeights removes several weight entries and reports how many the
// server deleted.
func (s *State) DeleteWeights(ctx context.Context, ids []int64) (int64, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return 0, err
	}

	n, err := s.backend.DeleteWeights(ctx, ids)
	if err != nil {
		return 0, s.checkSession(err)
	}
	s.update(func() {
		s.weights = slices.DeleteFunc(s.weights, func(e domain.WeightEntry) bool { return slices.Contains(ids, e.ID) })
	})
	return n, nil
}

// AddGlucose records a glucose reading and merges it into the logs.
func (s *State) AddGlucose(ctx context.Context, in app.GlucoseInput) (*domain.GlucoseLog, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	entry, err := s.backend.AddGlucoseLog(ctx, in)
	if err != nil {
		return nil, s.checkSession(err)
	}
	s.update(func() { s.glucose = upsertGlucose(s.glucose, *entry) })
	return entry, nil
}

// UpdateGlucose replaces a glucose reading.
func (s *State) UpdateGlucose(ctx context.Context, id int64, in app.GlucoseInput) (*domain.GlucoseLog, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	entry, err := s.backend.UpdateGlucoseLog(ctx, id, in)
	if err != nil {
		return nil, s.checkSession(err)
	}
	s.update(func() { s.glucose = upsertGlucose(s.glucose, *entry) })
	return entry, nil
}

// DeleteGlucose removes a glucose reading.
func (s *State) DeleteGlucose(ctx context.Context, id int64) error {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return err
	}

	if err := s.backend.DeleteGlucoseLog(ctx, id); err != nil {
		return s.checkSession(err)
	}
	s.update(func() {
		s.glucose = slices.DeleteFunc(s.glucose, func(l domain.GlucoseLog) bool { return l.ID == id })
	})
	return nil
}

// DeleteGlucoseLogs removes several glucose readings and reports how many the
// server deleted.
func (s *State) DeleteGlucoseLogs(ctx context.Context, ids []int64) (int64, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := s.requireUser(); err != nil {
		return 0, err
	}

	n, err := s.backend.DeleteGlucoseLogs(ctx, ids)
	if err != nil {
		return 0, s.checkSession(err)
	}
	s.update(func() {
		s.glucose = slices.DeleteFunc(s.glucose, func(l domain.GlucoseLog) bool { return slices.Contains(ids, l.ID) })
	})
	return n, nil
}

func upsertWeight(entries []domain.WeightEntry, e domain.WeightEntry) []domain.WeightEntry {
	out := slices.DeleteFunc(slices.Clone(entries), func(x domain.WeightEntry) bool { return x.ID == e.ID })
	out = append(out, e)
	domain.SortWeights(out)
	return out
}

func upsertGlucose(logs []domain.GlucoseLog, l domain.GlucoseLog) []domain.GlucoseLog {
	out := slices.DeleteFunc(slices.Clone(logs), func(x domain.GlucoseLog) bool { return x.ID == l.ID })
	out = append(out, l)
	domain.SortGlucoseLogs(out)
	return out
}
