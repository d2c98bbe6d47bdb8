// Package repotest holds behavioural tests shared by every storage adapter
// that can run against a real (or in-process) store.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"glucotrack/internal/domain"
)

// Store is the full set of ports a storage adapter provides.
type Store interface {
	domain.UserRepository
	domain.ProfileRepository
	domain.WeightRepository
	domain.GlucoseRepository
}

// Run executes every shared test against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) (Store, domain.SessionRepository)) {
	t.Helper()
	t.Run("Users", func(t *testing.T) {
		s, _ := newStore(t)
		testUsers(t, s)
	})
	t.Run("Profiles", func(t *testing.T) {
		s, _ := newStore(t)
		testProfiles(t, s)
	})
	t.Run("Weights", func(t *testing.T) {
		s, _ := newStore(t)
		testWeights(t, s)
	})
	t.Run("Glucose", func(t *testing.T) {
		s, _ := newStore(t)
		testGlucose(t, s)
	})
	t.Run("Sessions", func(t *testing.T) {
		s, sessions := newStore(t)
		testSessions(t, s, sessions)
	})
}

func createUser(t *testing.T, s Store, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u, err := s.Create(context.Background(),
		domain.User{Email: email, DisplayName: "Test", PasswordHash: "hash", CreatedAt: now},
		domain.Profile{Name: "Test", UpdatedAt: now},
	)
	if err != nil {
		t.Fatalf("Create(%s): %v", email, err)
	}
	return u
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()

	u := createUser(t, s, "bob@example.com")
	if u.ID == 0 || u.Email != "bob@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	byEmail, err := s.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Fatalf("failed to retrieve user by email: %+v", byEmail)
	}

	byID, err := s.GetByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Email != u.Email {
		t.Fatalf("GetByID: %+v %v", byID, err)
	}

	missing, err := s.GetByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for unknown email; got %+v, %v", missing, err)
	}

	_, err = s.Create(ctx, domain.User{Email: "bob@example.com"}, domain.Profile{})
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 user, got %d (%v)", count, err)
	}
}

func testProfiles(t *testing.T, s Store) {
	ctx := context.Background()
	u := createUser(t, s, "ana@example.com")

	p, err := s.GetProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p == nil || p.UserID != u.ID || p.Name != "Test" {
		t.Fatalf("expected default profile, got %+v", p)
	}

	p.Birthdate = "1990-05-01"
	p.HeightCm = 172.5
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := s.SaveProfile(ctx, *p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, _ := s.GetProfile(ctx, u.ID)
	if got.Birthdate != "1990-05-01" || got.HeightCm != 172.5 || got.Name != "Test" {
		t.Errorf("profile not saved: %+v", got)
	}

	if p, _ := s.GetProfile(ctx, 9999); p != nil {
		t.Errorf("expected no profile for unknown user, got %+v", p)
	}
	if _, err := s.SaveProfile(ctx, domain.Profile{UserID: 9999}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound saving unknown profile, got %v", err)
	}
}

func testWeights(t *testing.T, s Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice@example.com")
	eve := createUser(t, s, "eve@example.com")
	now := time.Now().UTC().Truncate(time.Second)

	first, err := s.AddWeight(ctx, alice.ID, "2024-01-10", 80, now)
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	second, err := s.AddWeight(ctx, alice.ID, "2024-01-05", 81, now)
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	if first.ID == 0 || second.ID == first.ID {
		t.Fatalf("expected distinct ids, got %d and %d", first.ID, second.ID)
	}

	list, err := s.ListWeights(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListWeights: %v", err)
	}
	if len(list) != 2 || list[0].Day != "2024-01-10" || list[1].Day != "2024-01-05" {
		t.Fatalf("expected [2024-01-10 2024-01-05], got %+v", list)
	}
	if list[0].WeightKg != 80 || list[1].WeightKg != 81 {
		t.Errorf("unexpected weights %+v", list)
	}

	// Other user sees nothing and cannot touch alice's entries.
	if other, _ := s.ListWeights(ctx, eve.ID); len(other) != 0 {
		t.Errorf("expected 0 entries for other user, got %d", len(other))
	}
	if _, err := s.UpdateWeight(ctx, domain.WeightEntry{ID: first.ID, UserID: eve.ID, Day: "2024-01-11", WeightKg: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating foreign entry, got %v", err)
	}
	if err := s.DeleteWeight(ctx, eve.ID, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting foreign entry, got %v", err)
	}
	if n, err := s.DeleteWeights(ctx, eve.ID, []int64{first.ID, second.ID}); err != nil || n != 0 {
		t.Errorf("expected 0 foreign deletions, got %d (%v)", n, err)
	}

	updated, err := s.UpdateWeight(ctx, domain.WeightEntry{ID: second.ID, UserID: alice.ID, Day: "2024-01-12", WeightKg: 79.5})
	if err != nil {
		t.Fatalf("UpdateWeight: %v", err)
	}
	if updated.Day != "2024-01-12" || updated.WeightKg != 79.5 {
		t.Errorf("unexpected update result %+v", updated)
	}
	list, _ = s.ListWeights(ctx, alice.ID)
	if list[0].ID != second.ID {
		t.Errorf("expected updated entry to sort first, got %+v", list)
	}

	third, _ := s.AddWeight(ctx, alice.ID, "2024-01-01", 82, now)
	n, err := s.DeleteWeights(ctx, alice.ID, []int64{first.ID, third.ID, 424242})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d (%v)", n, err)
	}
	list, _ = s.ListWeights(ctx, alice.ID)
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("expected only entry %d left, got %+v", second.ID, list)
	}

	if err := s.DeleteWeight(ctx, alice.ID, second.ID); err != nil {
		t.Fatalf("DeleteWeight: %v", err)
	}
	if err := s.DeleteWeight(ctx, alice.ID, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	fourth, _ := s.AddWeight(ctx, alice.ID, "2024-02-01", 78, now)
	if fourth.ID <= third.ID {
		t.Errorf("expected id after %d, got %d", third.ID, fourth.ID)
	}
}

func testGlucose(t *testing.T, s Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice@example.com")
	eve := createUser(t, s, "eve@example.com")
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	add := func(userID int64, ts time.Time, g float64) *domain.GlucoseLog {
		t.Helper()
		l, err := s.AddGlucoseLog(ctx, domain.GlucoseLog{UserID: userID, Timestamp: ts, MealType: domain.MealBreakfast, Glycemia: g, Dosage: 4})
		if err != nil {
			t.Fatalf("AddGlucoseLog: %v", err)
		}
		return l
	}
	morning := add(alice.ID, base, 0.9)
	evening := add(alice.ID, base.Add(10*time.Hour), 1.6)

	logs, err := s.ListGlucoseLogs(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListGlucoseLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != evening.ID || logs[1].ID != morning.ID {
		t.Fatalf("expected newest first, got %+v", logs)
	}
	if !logs[1].Timestamp.Equal(base) || logs[1].MealType != domain.MealBreakfast || logs[1].Dosage != 4 {
		t.Errorf("log not stored faithfully: %+v", logs[1])
	}

	if other, _ := s.ListGlucoseLogs(ctx, eve.ID); len(other) != 0 {
		t.Errorf("expected 0 logs for other user, got %d", len(other))
	}
	foreign := *morning
	foreign.UserID = eve.ID
	if _, err := s.UpdateGlucoseLog(ctx, foreign); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating foreign log, got %v", err)
	}
	if err := s.DeleteGlucoseLog(ctx, eve.ID, morning.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting foreign log, got %v", err)
	}

	morning.Glycemia = 1.1
	morning.MealType = domain.MealFasting
	morning.Timestamp = base.Add(12 * time.Hour)
	updated, err := s.UpdateGlucoseLog(ctx, *morning)
	if err != nil {
		t.Fatalf("UpdateGlucoseLog: %v", err)
	}
	if updated.Glycemia != 1.1 || updated.MealType != domain.MealFasting {
		t.Errorf("unexpected update result %+v", updated)
	}
	logs, _ = s.ListGlucoseLogs(ctx, alice.ID)
	if logs[0].ID != morning.ID {
		t.Errorf("expected updated log to sort first, got %+v", logs)
	}

	n, err := s.DeleteGlucoseLogs(ctx, alice.ID, []int64{evening.ID, 424242})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d (%v)", n, err)
	}
	if err := s.DeleteGlucoseLog(ctx, alice.ID, morning.ID); err != nil {
		t.Fatalf("DeleteGlucoseLog: %v", err)
	}
	if logs, _ := s.ListGlucoseLogs(ctx, alice.ID); len(logs) != 0 {
		t.Errorf("expected no logs left, got %+v", logs)
	}

	next := add(alice.ID, base, 1.0)
	if next.ID <= evening.ID {
		t.Errorf("expected id after %d, got %d", evening.ID, next.ID)
	}
}

func testSessions(t *testing.T, s Store, sessions domain.SessionRepository) {
	ctx := context.Background()
	u := createUser(t, s, "sess@example.com")

	if err := sessions.Create(ctx, u.ID, "token123", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sessions.Create(ctx, u.ID, "stale", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess, err := sessions.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserID != u.ID {
		t.Fatalf("expected session for user %d, got %+v", u.ID, sess)
	}

	n, err := sessions.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 expired session deleted, got %d (%v)", n, err)
	}
	if stale, _ := sessions.GetByToken(ctx, "stale"); stale != nil {
		t.Error("expected stale session to be gone")
	}

	_ = sessions.Delete(ctx, "token123")
	sess, _ = sessions.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
