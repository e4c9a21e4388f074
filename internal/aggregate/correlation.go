package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"tradedash/internal/models"
)

// Correlation computes the Pearson correlation between every pair of
// models.CorrelationColumns over the rows where both values are present.
// A cell is null when fewer than two such rows exist or either side is
// constant; the diagonal is 1 for every column that varies.
func Correlation(view []models.Record) models.CorrelationMatrix {
	cols := models.CorrelationColumns
	k := len(cols)

	values := make([][]models.Number, k)
	for c, name := range cols {
		values[c] = make([]models.Number, len(view))
		for i, r := range view {
			values[c][i], _ = r.Field(name)
		}
	}

	matrix := make([][]models.Number, k)
	for i := range matrix {
		matrix[i] = make([]models.Number, k)
	}

	for i := 0; i < k; i++ {
		if _, ok := pearson(values[i], values[i]); ok {
			matrix[i][i] = models.Num(1)
		}
		for j := i + 1; j < k; j++ {
			if r, ok := pearson(values[i], values[j]); ok {
				matrix[i][j] = models.Num(r)
				matrix[j][i] = models.Num(r)
			}
		}
	}

	return models.CorrelationMatrix{
		Columns: append([]string(nil), cols...),
		Values:  matrix,
	}
}

func pearson(a, b []models.Number) (float64, bool) {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			xs = append(xs, a[i].Value)
			ys = append(ys, b[i].Value)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return max(-1, min(1, r)), true
}
