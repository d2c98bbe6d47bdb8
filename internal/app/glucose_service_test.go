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

type mockGlucoseRepo struct {
	listFn       func(ctx context.Context, userID int64) ([]domain.GlucoseLog, error)
	addFn        func(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error)
	updateFn     func(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error)
	deleteFn     func(ctx context.Context, userID, id int64) error
	deleteManyFn func(ctx context.Context, userID int64, ids []int64) (int64, error)
}

func (m *mockGlucoseRepo) ListGlucoseLogs(ctx context.Context, userID int64) ([]domain.GlucoseLog, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockGlucoseRepo) AddGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	if m.addFn != nil {
		return m.addFn(ctx, l)
	}
	l.ID = 1
	return &l, nil
}

func (m *mockGlucoseRepo) UpdateGlucoseLog(ctx context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, l)
	}
	return &l, nil
}

func (m *mockGlucoseRepo) DeleteGlucoseLog(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockGlucoseRepo) DeleteGlucoseLogs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, userID, ids)
	}
	return 0, nil
}

func TestGlucoseAdd_Validation(t *testing.T) {
	svc := app.NewGlucoseService(&mockGlucoseRepo{})

	tests := []struct {
		name string
		in   app.GlucoseInput
	}{
		{"bad meal", app.GlucoseInput{MealType: "Brunch", Glycemia: 1.1}},
		{"empty meal", app.GlucoseInput{Glycemia: 1.1}},
		{"zero glycemia", app.GlucoseInput{MealType: domain.MealLunch}},
		{"glycemia too high", app.GlucoseInput{MealType: domain.MealLunch, Glycemia: 11}},
		{"negative dosage", app.GlucoseInput{MealType: domain.MealLunch, Glycemia: 1.1, Dosage: -1}},
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

func TestGlucoseAdd_DefaultsTimestamp(t *testing.T) {
	var got domain.GlucoseLog
	repo := &mockGlucoseRepo{
		addFn: func(_ context.Context, l domain.GlucoseLog) (*domain.GlucoseLog, error) {
			got = l
			l.ID = 10
			return &l, nil
		},
	}
	svc := app.NewGlucoseService(repo)

	before := time.Now().Add(-time.Second)
	created, err := svc.Add(context.Background(), 3, app.GlucoseInput{MealType: domain.MealFasting, Glycemia: 0.95, Dosage: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 10 || got.UserID != 3 {
		t.Errorf("expected id 10 for user 3, got id %d user %d", created.ID, got.UserID)
	}
	if got.Timestamp.Before(before) || got.Timestamp.After(time.Now()) {
		t.Errorf("expected timestamp near now, got %v", got.Timestamp)
	}
}

func TestGlucoseList_SortedDescending(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := &mockGlucoseRepo{
		listFn: func(context.Context, int64) ([]domain.GlucoseLog, error) {
			return []domain.GlucoseLog{
				{ID: 1, Timestamp: base},
				{ID: 2, Timestamp: base.Add(2 * time.Hour)},
				{ID: 3, Timestamp: base.Add(time.Hour)},
			}, nil
		},
	}
	svc := app.NewGlucoseService(repo)

	logs, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{2, 3, 1}
	for i, l := range logs {
		if l.ID != want[i] {
			t.Errorf("logs[%d]: expected id %d, got %d", i, want[i], l.ID)
		}
	}
}

func TestGlucoseUpdate_NotFound(t *testing.T) {
	repo := &mockGlucoseRepo{
		updateFn: func(context.Context, domain.GlucoseLog) (*domain.GlucoseLog, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := app.NewGlucoseService(repo)
	_, err := svc.Update(context.Background(), 1, 42, app.GlucoseInput{MealType: domain.MealDinner, Glycemia: 1.2})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGlucoseStats(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockGlucoseRepo{
		listFn: func(context.Context, int64) ([]domain.GlucoseLog, error) {
			return []domain.GlucoseLog{
				{ID: 1, Timestamp: since.Add(-time.Hour), Glycemia: 3.0, Dosage: 50},
				{ID: 2, Timestamp: since.Add(time.Hour), Glycemia: 0.6, Dosage: 2},
				{ID: 3, Timestamp: since.Add(2 * time.Hour), Glycemia: 1.0, Dosage: 4},
				{ID: 4, Timestamp: since.Add(3 * time.Hour), Glycemia: 2.0, Dosage: 6},
				{ID: 5, Timestamp: since.Add(4 * time.Hour), Glycemia: 1.4, Dosage: 0},
			}, nil
		},
	}
	svc := app.NewGlucoseService(repo)

	stats, err := svc.Stats(context.Background(), 1, since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Count != 4 {
		t.Fatalf("expected 4 readings, got %d", stats.Count)
	}
	if math.Abs(stats.Average-1.25) > 1e-9 {
		t.Errorf("expected average 1.25, got %v", stats.Average)
	}
	if stats.Min != 0.6 || stats.Max != 2.0 {
		t.Errorf("expected min 0.6 max 2.0, got %v %v", stats.Min, stats.Max)
	}
	if stats.TotalDosage != 12 {
		t.Errorf("expected total dosage 12, got %v", stats.TotalDosage)
	}
	if stats.InRangePct != 50 {
		t.Errorf("expected 50%% in range, got %v", stats.InRangePct)
	}
}

func TestGlucoseStats_Empty(t *testing.T) {
	svc := app.NewGlucoseService(&mockGlucoseRepo{})
	stats, err := svc.Stats(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Count != 0 || stats.Average != 0 || stats.InRangePct != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestGlucoseDeleteMany(t *testing.T) {
	repo := &mockGlucoseRepo{
		deleteManyFn: func(_ context.Context, userID int64, ids []int64) (int64, error) {
			if userID != 2 {
				t.Errorf("expected user 2, got %d", userID)
			}
			return 1, nil
		},
	}
	svc := app.NewGlucoseService(repo)
	n, err := svc.DeleteMany(context.Background(), 2, []int64{5, 6})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d (%v)", n, err)
	}
}
