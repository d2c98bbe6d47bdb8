package domain

import (
	"context"
	"sort"
	"time"
)

// WeightEntry represents a single weight measurement in kilograms.
type WeightEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	WeightKg  float64   `json:"weightKg"`
	CreatedAt time.Time `json:"createdAt"`
}

// WeightRepository is the port for weight persistence. Every method is scoped
// to userID; entries of other users behave as if they did not exist.
type WeightRepository interface {
	ListWeights(ctx context.Context, userID int64) ([]WeightEntry, error)
	AddWeight(ctx context.Context, userID int64, day string, weightKg float64, createdAt time.Time) (*WeightEntry, error)
	UpdateWeight(ctx context.Context, e WeightEntry) (*WeightEntry, error)
	DeleteWeight(ctx context.Context, userID, id int64) error
	DeleteWeights(ctx context.Context, userID int64, ids []int64) (int64, error)
}

// SortWeights orders entries newest day first, ties by descending id.
func SortWeights(entries []WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day > entries[j].Day
		}
		return entries[i].ID > entries[j].ID
	})
}
