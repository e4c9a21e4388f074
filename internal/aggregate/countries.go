// Package aggregate derives the dashboard panels from a filtered view. Every
// function here is pure: it reads the view and returns a new value.
package aggregate

import (
	"cmp"
	"slices"

	"tradedash/internal/models"
)

// TopCountries sums Quantity per country and returns the n largest totals,
// descending. Equal totals are ordered by country name. Rows without a
// country are skipped; null quantities add nothing.
func TopCountries(view []models.Record, n int) []models.CountryTotal {
	totals := make(map[string]float64)
	for _, r := range view {
		if r.Country == "" {
			continue
		}
		q := 0.0
		if r.Quantity.Valid {
			q = r.Quantity.Value
		}
		totals[r.Country] += q
	}

	result := make([]models.CountryTotal, 0, len(totals))
	for country, total := range totals {
		result = append(result, models.CountryTotal{Country: country, TotalQuantity: total})
	}
	slices.SortFunc(result, func(a, b models.CountryTotal) int {
		if c := cmp.Compare(b.TotalQuantity, a.TotalQuantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})

	if n < 0 {
		n = 0
	}
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// CountryShare converts each total into a percentage of the sum of top.
// The order of top is kept. A zero sum yields zero shares.
func CountryShare(top []models.CountryTotal) []models.CountryShare {
	sum := 0.0
	for _, c := range top {
		sum += c.TotalQuantity
	}

	shares := make([]models.CountryShare, len(top))
	for i, c := range top {
		shares[i] = models.CountryShare{Country: c.Country}
		if sum != 0 {
			shares[i].Percentage = c.TotalQuantity / sum * 100
		}
	}
	return shares
}
