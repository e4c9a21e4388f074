package aggregate

import (
	"slices"
	"time"

	"tradedash/internal/models"
)

// TimeTrend sums Quantity per calendar day over records with a parsed date.
// Days without records are absent rather than zero. When the source has no
// Date column the trend is marked unavailable.
func TimeTrend(view []models.Record, available bool) models.TimeTrend {
	trend := models.TimeTrend{Available: available, Points: []models.TrendPoint{}}
	if !available {
		return trend
	}

	daily := make(map[time.Time]float64)
	for _, r := range view {
		if !r.HasDate {
			continue
		}
		day := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
		q := 0.0
		if r.Quantity.Valid {
			q = r.Quantity.Value
		}
		daily[day] += q
	}

	for day, total := range daily {
		trend.Points = append(trend.Points, models.TrendPoint{Date: day, TotalQuantity: total})
	}
	slices.SortFunc(trend.Points, func(a, b models.TrendPoint) int {
		return a.Date.Compare(b.Date)
	})
	return trend
}
