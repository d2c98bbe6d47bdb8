package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"glucotrack/internal/domain"
)

const (
	maxHeightCm   = 300
	maxNameLength = 100
)

// HealthMetrics are values derived from the profile and the weight history.
// Pointer fields are nil when their inputs are unknown.
type HealthMetrics struct {
	Age            *int     `json:"age"`
	BMI            *float64 `json:"bmi"`
	BMICategory    string   `json:"bmiCategory,omitempty"`
	LatestWeightKg *float64 `json:"latestWeightKg"`
	HeightCm       float64  `json:"heightCm"`
}

// ProfileService encapsulates profile use cases.
type ProfileService struct {
	profiles domain.ProfileRepository
	weights  *WeightService
}

// NewProfileService creates a ProfileService. The weight service supplies the
// latest weight for derived metrics.
func NewProfileService(profiles domain.ProfileRepository, weights *WeightService) *ProfileService {
	return &ProfileService{profiles: profiles, weights: weights}
}

// GetProfile returns the user's profile or domain.ErrNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// UpdateProfile applies the supplied fields and leaves the rest untouched.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, u domain.ProfileUpdate) (*domain.Profile, error) {
	if err := validateProfileUpdate(&u); err != nil {
		return nil, err
	}
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Apply(u)
	next.UserID = userID
	next.UpdatedAt = time.Now().UTC()
	saved, err := s.profiles.SaveProfile(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

// Metrics computes age and BMI as of now.
func (s *ProfileService) Metrics(ctx context.Context, userID int64, now time.Time) (*HealthMetrics, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := &HealthMetrics{HeightCm: p.HeightCm}

	if p.Birthdate != "" {
		if birth, err := domain.ParseDay(p.Birthdate, now.Location()); err == nil {
			age := domain.AgeOn(birth, now)
			m.Age = &age
		}
	}

	latest, err := s.weights.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		kg := latest.WeightKg
		m.LatestWeightKg = &kg
		if bmi, err := domain.BMI(kg, p.HeightCm); err == nil {
			bmi = math.Round(bmi*100) / 100
			m.BMI = &bmi
			m.BMICategory = domain.BMICategory(bmi)
		}
	}
	return m, nil
}

func validateProfileUpdate(u *domain.ProfileUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" || len(name) > maxNameLength {
			return invalid("name", "must be 1 to %d characters", maxNameLength)
		}
		u.Name = &name
	}
	if u.Birthdate != nil && *u.Birthdate != "" {
		birth, err := domain.ParseDay(*u.Birthdate, time.UTC)
		if err != nil {
			return invalid("birthdate", "must be a YYYY-MM-DD date")
		}
		if birth.After(time.Now()) {
			return invalid("birthdate", "must not be in the future")
		}
	}
	if u.HeightCm != nil && (*u.HeightCm < 0 || *u.HeightCm > maxHeightCm) {
		return invalid("heightCm", "must be between 0 and %d cm", maxHeightCm)
	}
	return nil
}
