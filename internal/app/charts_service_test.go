package app_test

import (
	"context"
	"math"
	"testing"
	"time"

	"glucotrack/internal/app"
	"glucotrack/internal/domain"
)

func newChartsService(wr *mockWeightRepo, gr *mockGlucoseRepo) *app.ChartsService {
	return app.NewChartsService(app.NewWeightService(wr), app.NewGlucoseService(gr))
}

func TestGetDaily_BadUnit(t *testing.T) {
	svc := newChartsService(&mockWeightRepo{}, &mockGlucoseRepo{})
	_, err := svc.GetDaily(context.Background(), 1, 7, "stones")
	if !app.IsValidation(err) {
		t.Fatalf("expected validation error for bad unit, got %v", err)
	}
}

func TestGetDaily_Success(t *testing.T) {
	now := time.Now()
	today := now.Format(domain.DayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(domain.DayLayout)

	wr := &mockWeightRepo{
		listFn: func(context.Context, int64) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{
				{ID: 1, Day: today, WeightKg: 81},
				{ID: 2, Day: today, WeightKg: 80},
				{ID: 3, Day: yesterday, WeightKg: 82},
			}, nil
		},
	}
	gr := &mockGlucoseRepo{
		listFn: func(context.Context, int64) ([]domain.GlucoseLog, error) {
			return []domain.GlucoseLog{
				{ID: 1, Timestamp: now, Glycemia: 1.0, Dosage: 4},
				{ID: 2, Timestamp: now, Glycemia: 1.4, Dosage: 6},
			}, nil
		},
	}

	svc := newChartsService(wr, gr)
	points, err := svc.GetDaily(context.Background(), 1, 3, "kg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Weight != nil {
		t.Errorf("expected no weight two days ago, got %v", points[0].Weight)
	}
	if points[1].Weight == nil || points[1].Weight.Value != 82 {
		t.Errorf("expected weight 82 yesterday, got %v", points[1].Weight)
	}

	last := points[2]
	if last.Day != today {
		t.Fatalf("expected last point %s, got %s", today, last.Day)
	}
	if last.Weight == nil || last.Weight.Value != 80 {
		t.Errorf("expected latest weight of the day 80, got %v", last.Weight)
	}
	if last.AvgGlycemia == nil || math.Abs(*last.AvgGlycemia-1.2) > 1e-9 {
		t.Errorf("expected avg glycemia 1.2, got %v", last.AvgGlycemia)
	}
	if last.TotalDosage != 10 || last.ReadingCount != 2 {
		t.Errorf("expected dosage 10 over 2 readings, got %v over %d", last.TotalDosage, last.ReadingCount)
	}
}

func TestGetDaily_ConvertUnit(t *testing.T) {
	today := time.Now().Format(domain.DayLayout)
	wr := &mockWeightRepo{
		listFn: func(context.Context, int64) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{{ID: 1, Day: today, WeightKg: 100}}, nil
		},
	}

	svc := newChartsService(wr, &mockGlucoseRepo{})
	points, err := svc.GetDaily(context.Background(), 1, 1, "lb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].Weight == nil {
		t.Fatalf("expected one point with weight, got %+v", points)
	}
	if math.Abs(points[0].Weight.Value-220.46) > 0.01 {
		t.Errorf("expected ~220.46 lb, got %v", points[0].Weight.Value)
	}
	if points[0].Weight.Unit != "lb" {
		t.Errorf("expected unit lb, got %s", points[0].Weight.Unit)
	}
}

func TestGetDaily_ClampsDays(t *testing.T) {
	svc := newChartsService(&mockWeightRepo{}, &mockGlucoseRepo{})
	points, err := svc.GetDaily(context.Background(), 1, 1000, "kg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 366 {
		t.Errorf("expected 366 points, got %d", len(points))
	}
}
