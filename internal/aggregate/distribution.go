package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tradedash/internal/models"
)

const (
	HistogramBins   = 30
	densityGridSize = 200
)

// Distribution bins the valid values of variable into HistogramBins
// equal-width bins over their observed range and fits a Gaussian kernel
// density estimate with Scott's bandwidth.
func Distribution(view []models.Record, variable string) models.Distribution {
	values := make([]float64, 0, len(view))
	for _, r := range view {
		if v, ok := r.Field(variable); ok && v.Valid {
			values = append(values, v.Value)
		}
	}
	sort.Float64s(values)

	dist := models.Distribution{
		Variable: variable,
		Count:    len(values),
		Density:  []models.DensityPoint{},
	}

	if len(values) == 0 {
		dist.Bins = []models.HistogramBin{{Lower: 0, Upper: 1, Count: 0}}
		return dist
	}

	lo, hi := values[0], values[len(values)-1]
	// A range wider than float64 can hold cannot be split into bins.
	if lo == hi || math.IsInf(hi-lo, 0) {
		dist.Bins = []models.HistogramBin{{Lower: lo - 0.5, Upper: hi + 0.5, Count: len(values)}}
		dist.Scale = float64(len(values))
		return dist
	}

	dividers := floats.Span(make([]float64, HistogramBins+1), lo, hi)
	// The last bin is closed on the right.
	dividers[HistogramBins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, values, nil)

	dist.Bins = make([]models.HistogramBin, HistogramBins)
	for i := range dist.Bins {
		dist.Bins[i] = models.HistogramBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(counts[i]),
		}
	}
	dist.Bins[HistogramBins-1].Upper = hi

	width := (hi - lo) / HistogramBins
	dist.Scale = float64(len(values)) * width
	dist.Density = kernelDensity(values, lo, hi)
	return dist
}

func kernelDensity(values []float64, lo, hi float64) []models.DensityPoint {
	n := float64(len(values))
	if len(values) < 2 {
		return []models.DensityPoint{}
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return []models.DensityPoint{}
	}
	bw := sd * math.Pow(n, -1.0/5)

	grid := floats.Span(make([]float64, densityGridSize), lo, hi)
	points := make([]models.DensityPoint, len(grid))
	for i, x := range grid {
		sum := 0.0
		for _, v := range values {
			sum += distuv.UnitNormal.Prob((x - v) / bw)
		}
		points[i] = models.DensityPoint{X: x, Density: sum / (n * bw)}
	}
	return points
}
