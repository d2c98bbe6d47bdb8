package domain

import (
	"context"
	"sort"
	"time"
)

// MealType is the meal context a glucose reading was taken in.
type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
	MealFasting   MealType = "Fasting"
)

// MealTypes lists every valid meal type.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack, MealFasting}

// Valid reports whether m is one of MealTypes.
func (m MealType) Valid() bool {
	for _, v := range MealTypes {
		if m == v {
			return true
		}
	}
	return false
}

// GlucoseLog is a blood glucose reading with the insulin dose taken alongside it.
type GlucoseLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	MealType  MealType  `json:"mealType"`
	Glycemia  float64   `json:"glycemia"`
	Dosage    float64   `json:"dosage"`
}

// GlucoseRepository is the port for glucose log persistence. Every method is
// scoped to userID.
type GlucoseRepository interface {
	ListGlucoseLogs(ctx context.Context, userID int64) ([]GlucoseLog, error)
	AddGlucoseLog(ctx context.Context, l GlucoseLog) (*GlucoseLog, error)
	UpdateGlucoseLog(ctx context.Context, l GlucoseLog) (*GlucoseLog, error)
	DeleteGlucoseLog(ctx context.Context, userID, id int64) error
	DeleteGlucoseLogs(ctx context.Context, userID int64, ids []int64) (int64, error)
}

// SortGlucoseLogs orders logs newest first, ties by descending id.
func SortGlucoseLogs(logs []GlucoseLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		}
		return logs[i].ID > logs[j].ID
	})
}
