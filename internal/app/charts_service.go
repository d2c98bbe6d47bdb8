package app

import (
	"context"
	"time"

	"glucotrack/internal/domain"
)

const maxChartDays = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	weights *WeightService
	glucose *GlucoseService
	loc     *time.Location
	now     func() time.Time
}

// NewChartsService creates a ChartsService that buckets data by local day.
func NewChartsService(weights *WeightService, glucose *GlucoseService) *ChartsService {
	return &ChartsService{weights: weights, glucose: glucose, loc: time.Local, now: time.Now}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day          string       `json:"day"`
	Weight       *WeightPoint `json:"weight"`
	AvgGlycemia  *float64     `json:"avgGlycemia"`
	TotalDosage  float64      `json:"totalDosage"`
	ReadingCount int          `json:"readingCount"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GetDaily returns per-day chart data for the last days days, oldest first,
// with weights converted to the requested unit.
func (s *ChartsService) GetDaily(ctx context.Context, userID int64, days int, unit string) ([]DayPoint, error) {
	if unit != "kg" && unit != "lb" {
		return nil, invalid("unit", "must be \"kg\" or \"lb\"")
	}
	if days > maxChartDays {
		days = maxChartDays
	}
	if days < 1 {
		days = 1
	}

	weights, err := s.weights.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.glucose.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Lists are newest first, so the first weight seen for a day is its latest.
	latestWeight := make(map[string]float64)
	for _, w := range weights {
		if _, ok := latestWeight[w.Day]; !ok {
			latestWeight[w.Day] = w.WeightKg
		}
	}
	type glucoseDay struct {
		sum, dosage float64
		n           int
	}
	byDay := make(map[string]*glucoseDay)
	for _, l := range logs {
		day := domain.DayOf(l.Timestamp.In(s.loc))
		g := byDay[day]
		if g == nil {
			g = &glucoseDay{}
			byDay[day] = g
		}
		g.sum += l.Glycemia
		g.dosage += l.Dosage
		g.n++
	}

	today := s.now().In(s.loc)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := domain.DayOf(today.AddDate(0, 0, -i))
		p := DayPoint{Day: dayStr}

		if kg, ok := latestWeight[dayStr]; ok {
			p.Weight = &WeightPoint{Value: domain.ConvertWeight(kg, "kg", unit), Unit: unit}
		}
		if g := byDay[dayStr]; g != nil {
			avg := g.sum / float64(g.n)
			p.AvgGlycemia = &avg
			p.TotalDosage = g.dosage
			p.ReadingCount = g.n
		}
		points = append(points, p)
	}
	return points, nil
}
