package domain

import "time"

const kgToLb = 2.2046226218

// DayLayout is the layout of day strings such as WeightEntry.Day.
const DayLayout = "2006-01-02"

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

// ParseDay parses a "2006-01-02" day string as a date in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, loc)
}

// DayOf formats t as a day string in t's location.
func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}
