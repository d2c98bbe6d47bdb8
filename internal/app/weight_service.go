package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glucotrack/internal/domain"
)

const maxWeightKg = 500

// WeightInput is a weight measurement as submitted by a client. Unit is
// "kg" or "lb"; empty means kg.
type WeightInput struct {
	Day    string  `json:"day"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit,omitempty"`
}

// WeightService encapsulates weight-tracking use cases.
type WeightService struct {
	repo domain.WeightRepository
	now  func() time.Time
}

// NewWeightService creates a WeightService backed by the given repository.
func NewWeightService(repo domain.WeightRepository) *WeightService {
	return &WeightService{repo: repo, now: time.Now}
}

// List returns every weight entry of the user, newest day first.
func (s *WeightService) List(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	entries, err := s.repo.ListWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	domain.SortWeights(entries)
	return entries, nil
}

// Latest returns the most recent weight entry, or nil if there is none.
func (s *WeightService) Latest(ctx context.Context, userID int64) (*domain.WeightEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// Add validates and stores a new weight measurement.
func (s *WeightService) Add(ctx context.Context, userID int64, in WeightInput) (*domain.WeightEntry, error) {
	day, kg, err := validateWeight(in)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.AddWeight(ctx, userID, day, kg, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("add weight: %w", err)
	}
	return entry, nil
}

// Update replaces the day and weight of an existing entry owned by the user.
func (s *WeightService) Update(ctx context.Context, userID, id int64, in WeightInput) (*domain.WeightEntry, error) {
	day, kg, err := validateWeight(in)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.UpdateWeight(ctx, domain.WeightEntry{ID: id, UserID: userID, Day: day, WeightKg: kg})
	if err != nil {
		return nil, fmt.Errorf("update weight %d: %w", id, err)
	}
	return entry, nil
}

// Delete removes a single entry owned by the user.
func (s *WeightService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteWeight(ctx, userID, id); err != nil {
		return fmt.Errorf("delete weight %d: %w", id, err)
	}
	return nil
}

// DeleteMany removes the listed entries owned by the user and returns how
// many were deleted. Ids that do not exist or belong to someone else are
// ignored.
func (s *WeightService) DeleteMany(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteWeights(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete weights: %w", err)
	}
	return n, nil
}

func validateWeight(in WeightInput) (string, float64, error) {
	day := strings.TrimSpace(in.Day)
	if _, err := domain.ParseDay(day, time.UTC); err != nil {
		return "", 0, invalid("day", "must be a YYYY-MM-DD date")
	}
	unit := in.Unit
	if unit == "" {
		unit = "kg"
	}
	if unit != "kg" && unit != "lb" {
		return "", 0, invalid("unit", "must be \"kg\" or \"lb\"")
	}
	kg := domain.ConvertWeight(in.Weight, unit, "kg")
	if kg <= 0 || kg > maxWeightKg {
		return "", 0, invalid("weight", "must be between 0 and %d kg", maxWeightKg)
	}
	return day, kg, nil
}
