package domain

import (
	"errors"
	"time"
)

// BMI returns weight(kg) / height(m)^2.
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

// BMICategory maps a BMI value to its WHO category.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}

// AgeOn returns the age in whole years on the given day. A birthday on
// Feb 29 counts as reached on Mar 1 in non-leap years.
func AgeOn(birth, on time.Time) int {
	years := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
