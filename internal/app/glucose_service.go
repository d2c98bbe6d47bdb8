package app

import (
	"context"
	"fmt"
	"time"

	"glucotrack/internal/domain"
)

const (
	maxGlycemia = 10.0
	maxDosage   = 300.0

	// Target range for glycemia, in g/L.
	TargetLow  = 0.7
	TargetHigh = 1.8
)

// GlucoseInput is a glucose reading as submitted by a client. A zero
// Timestamp means now.
type GlucoseInput struct {
	Timestamp time.Time       `json:"timestamp"`
	MealType  domain.MealType `json:"mealType"`
	Glycemia  float64         `json:"glycemia"`
	Dosage    float64         `json:"dosage"`
}

// GlucoseStats summarizes the readings of a period.
type GlucoseStats struct {
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	TotalDosage float64 `json:"totalDosage"`
	InRangePct  float64 `json:"inRangePct"`
	TargetLow   float64 `json:"targetLow"`
	TargetHigh  float64 `json:"targetHigh"`
	Since       string  `json:"since"`
}

// GlucoseService encapsulates glucose log use cases.
type GlucoseService struct {
	repo domain.GlucoseRepository
	now  func() time.Time
}

// NewGlucoseService creates a GlucoseService backed by the given repository.
func NewGlucoseService(repo domain.GlucoseRepository) *GlucoseService {
	return &GlucoseService{repo: repo, now: time.Now}
}

// List returns every glucose log of the user, newest first.
func (s *GlucoseService) List(ctx context.Context, userID int64) ([]domain.GlucoseLog, error) {
	logs, err := s.repo.ListGlucoseLogs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list glucose logs: %w", err)
	}
	domain.SortGlucoseLogs(logs)
	return logs, nil
}

// Add validates and stores a new glucose reading.
func (s *GlucoseService) Add(ctx context.Context, userID int64, in GlucoseInput) (*domain.GlucoseLog, error) {
	l, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	l.UserID = userID
	created, err := s.repo.AddGlucoseLog(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("add glucose log: %w", err)
	}
	return created, nil
}

// Update replaces the fields of an existing log owned by the user.
func (s *GlucoseService) Update(ctx context.Context, userID, id int64, in GlucoseInput) (*domain.GlucoseLog, error) {
	l, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	l.ID, l.UserID = id, userID
	updated, err := s.repo.UpdateGlucoseLog(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("update glucose log %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes a single log owned by the user.
func (s *GlucoseService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteGlucoseLog(ctx, userID, id); err != nil {
		return fmt.Errorf("delete glucose log %d: %w", id, err)
	}
	return nil
}

// DeleteMany removes the listed logs owned by the user and returns how many
// were deleted.
func (s *GlucoseService) DeleteMany(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteGlucoseLogs(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete glucose logs: %w", err)
	}
	return n, nil
}

// Stats summarizes readings taken at or after since.
func (s *GlucoseService) Stats(ctx context.Context, userID int64, since time.Time) (GlucoseStats, error) {
	stats := GlucoseStats{TargetLow: TargetLow, TargetHigh: TargetHigh, Since: since.UTC().Format(time.RFC3339)}
	logs, err := s.repo.ListGlucoseLogs(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("list glucose logs: %w", err)
	}

	var sum float64
	inRange := 0
	for _, l := range logs {
		if l.Timestamp.Before(since) {
			continue
		}
		if stats.Count == 0 || l.Glycemia < stats.Min {
			stats.Min = l.Glycemia
		}
		if l.Glycemia > stats.Max {
			stats.Max = l.Glycemia
		}
		if l.Glycemia >= TargetLow && l.Glycemia <= TargetHigh {
			inRange++
		}
		sum += l.Glycemia
		stats.TotalDosage += l.Dosage
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Average = sum / float64(stats.Count)
		stats.InRangePct = 100 * float64(inRange) / float64(stats.Count)
	}
	return stats, nil
}

func (s *GlucoseService) validate(in GlucoseInput) (domain.GlucoseLog, error) {
	if !in.MealType.Valid() {
		return domain.GlucoseLog{}, invalid("mealType", "must be one of %v", domain.MealTypes)
	}
	if in.Glycemia <= 0 || in.Glycemia > maxGlycemia {
		return domain.GlucoseLog{}, invalid("glycemia", "must be between 0 and %g g/L", maxGlycemia)
	}
	if in.Dosage < 0 || in.Dosage > maxDosage {
		return domain.GlucoseLog{}, invalid("dosage", "must be between 0 and %g units", maxDosage)
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	return domain.GlucoseLog{
		Timestamp: ts.UTC().Truncate(time.Second),
		MealType:  in.MealType,
		Glycemia:  in.Glycemia,
		Dosage:    in.Dosage,
	}, nil
}
