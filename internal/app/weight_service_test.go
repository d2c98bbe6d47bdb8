package app_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"glucotrack/internal/app"
	"glucotrack/internal/domain"
)

type mockWeightRepo struct {
	listFn       func(ctx context.Context, userID int64) ([]domain.WeightEntry, error)
	addFn        func(ctx context.Context, userID int64, day string, kg float64, t time.Time) (*domain.WeightEntry, error)
	updateFn     func(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error)
	deleteFn     func(ctx context.Context, userID, id int64) error
	deleteManyFn func(ctx context.Context, userID int64, ids []int64) (int64, error)
}

func (m *mockWeightRepo) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockWeightRepo) AddWeight(ctx context.Context, userID int64, day string, kg float64, t time.Time) (*domain.WeightEntry, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, day, kg, t)
	}
	return &domain.WeightEntry{ID: 1, UserID: userID, Day: day, WeightKg: kg, CreatedAt: t}, nil
}

func (m *mockWeightRepo) UpdateWeight(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return &e, nil
}

func (m *mockWeightRepo) DeleteWeight(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockWeightRepo) DeleteWeights(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, userID, ids)
	}
	return 0, nil
}

func TestWeightAdd_Validation(t *testing.T) {
	svc := app.NewWeightService(&mockWeightRepo{})

	tests := []struct {
		name string
		in   app.WeightInput
	}{
		{"zero value", app.WeightInput{Day: "2024-01-10", Weight: 0}},
		{"negative value", app.WeightInput{Day: "2024-01-10", Weight: -5}},
		{"too heavy", app.WeightInput{Day: "2024-01-10", Weight: 501}},
		{"bad unit", app.WeightInput{Day: "2024-01-10", Weight: 80, Unit: "stones"}},
		{"bad day", app.WeightInput{Day: "10/01/2024", Weight: 80}},
		{"empty day", app.WeightInput{Weight: 80}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), 1, tc.in)
			if !app.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestWeightAdd_ConvertsPounds(t *testing.T) {
	var stored float64
	repo := &mockWeightRepo{
		addFn: func(_ context.Context, userID int64, day string, kg float64, ts time.Time) (*domain.WeightEntry, error) {
			stored = kg
			return &domain.WeightEntry{ID: 4, UserID: userID, Day: day, WeightKg: kg}, nil
		},
	}
	svc := app.NewWeightService(repo)

	entry, err := svc.Add(context.Background(), 1, app.WeightInput{Day: "2024-01-10", Weight: 220.46226218, Unit: "lb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(stored-100) > 0.001 {
		t.Errorf("expected 100 kg stored, got %v", stored)
	}
	if entry.ID != 4 {
		t.Errorf("expected id 4, got %d", entry.ID)
	}
}

func TestWeightList_SortedDescending(t *testing.T) {
	repo := &mockWeightRepo{
		listFn: func(context.Context, int64) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{
				{ID: 2, Day: "2024-01-05", WeightKg: 81},
				{ID: 1, Day: "2024-01-10", WeightKg: 80},
				{ID: 3, Day: "2024-01-07", WeightKg: 80.5},
			}, nil
		},
	}
	svc := app.NewWeightService(repo)

	entries, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2024-01-10", "2024-01-07", "2024-01-05"}
	for i, e := range entries {
		if e.Day != want[i] {
			t.Errorf("entries[%d]: expected %s, got %s", i, want[i], e.Day)
		}
	}

	latest, err := svc.Latest(context.Background(), 1)
	if err != nil || latest == nil || latest.Day != "2024-01-10" {
		t.Errorf("expected latest 2024-01-10, got %v (%v)", latest, err)
	}
}

func TestWeightLatest_Empty(t *testing.T) {
	svc := app.NewWeightService(&mockWeightRepo{})
	latest, err := svc.Latest(context.Background(), 1)
	if err != nil || latest != nil {
		t.Fatalf("expected nil, nil; got %v, %v", latest, err)
	}
}

func TestWeightUpdate_NotFound(t *testing.T) {
	repo := &mockWeightRepo{
		updateFn: func(context.Context, domain.WeightEntry) (*domain.WeightEntry, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := app.NewWeightService(repo)

	_, err := svc.Update(context.Background(), 1, 99, app.WeightInput{Day: "2024-01-10", Weight: 80})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWeightUpdate_ScopesToUser(t *testing.T) {
	repo := &mockWeightRepo{
		updateFn: func(_ context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
			if e.UserID != 5 || e.ID != 3 {
				t.Errorf("expected user 5 id 3, got user %d id %d", e.UserID, e.ID)
			}
			return &e, nil
		},
	}
	svc := app.NewWeightService(repo)
	if _, err := svc.Update(context.Background(), 5, 3, app.WeightInput{Day: "2024-01-10", Weight: 80}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWeightDelete_PropagatesNotFound(t *testing.T) {
	repo := &mockWeightRepo{
		deleteFn: func(context.Context, int64, int64) error { return domain.ErrNotFound },
	}
	svc := app.NewWeightService(repo)
	if err := svc.Delete(context.Background(), 1, 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWeightDeleteMany(t *testing.T) {
	called := false
	repo := &mockWeightRepo{
		deleteManyFn: func(_ context.Context, _ int64, ids []int64) (int64, error) {
			called = true
			return int64(len(ids)), nil
		},
	}
	svc := app.NewWeightService(repo)

	n, err := svc.DeleteMany(context.Background(), 1, nil)
	if err != nil || n != 0 || called {
		t.Fatalf("empty ids must be a no-op, got n=%d err=%v called=%v", n, err, called)
	}

	n, err = svc.DeleteMany(context.Background(), 1, []int64{1, 2})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d (%v)", n, err)
	}
}
