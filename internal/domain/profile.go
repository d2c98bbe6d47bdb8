package domain

import (
	"context"
	"time"
)

// Profile holds the personal details used to derive health metrics.
// Birthdate is a "2006-01-02" day string, empty when unknown.
type Profile struct {
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Birthdate string    `json:"birthdate"`
	HeightCm  float64   `json:"heightCm"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Birthdate *string  `json:"birthdate,omitempty"`
	HeightCm  *float64 `json:"heightCm,omitempty"`
}

// Apply returns a copy of p with the supplied fields of u applied.
func (p Profile) Apply(u ProfileUpdate) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Birthdate != nil {
		p.Birthdate = *u.Birthdate
	}
	if u.HeightCm != nil {
		p.HeightCm = *u.HeightCm
	}
	return p
}

// ProfileRepository is the port for profile persistence.
// SaveProfile returns ErrNotFound if the user has no profile row.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	SaveProfile(ctx context.Context, p Profile) (*Profile, error)
}
