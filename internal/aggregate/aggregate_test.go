package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedash/internal/models"
)

func record(country string, quantity, value float64) models.Record {
	return models.Record{Transaction: models.Transaction{
		Country:      country,
		ImportExport: "Export",
		Quantity:     models.Num(quantity),
		Value:        models.Num(value),
	}}
}

func dated(day time.Time, quantity float64) models.Record {
	r := record("A", quantity, 1)
	r.Date = day
	r.HasDate = true
	return r
}

func TestTopCountries_TwoRowScenario(t *testing.T) {
	view := []models.Record{record("A", 10, 0), record("B", 30, 0)}

	top := TopCountries(view, 2)
	assert.Equal(t, []models.CountryTotal{
		{Country: "B", TotalQuantity: 30},
		{Country: "A", TotalQuantity: 10},
	}, top)

	share := CountryShare(top)
	require.Len(t, share, 2)
	assert.Equal(t, "B", share[0].Country)
	assert.InDelta(t, 75.0, share[0].Percentage, 1e-9)
	assert.Equal(t, "A", share[1].Country)
	assert.InDelta(t, 25.0, share[1].Percentage, 1e-9)
}

func TestTopCountries_GroupsAndLimits(t *testing.T) {
	view := []models.Record{
		record("Chile", 5, 0),
		record("Peru", 7, 0),
		record("Chile", 4, 0),
		record("Kenya", 1, 0),
		record("", 100, 0),
		{Transaction: models.Transaction{Country: "Japan"}},
	}

	top := TopCountries(view, 2)
	assert.Equal(t, []models.CountryTotal{
		{Country: "Chile", TotalQuantity: 9},
		{Country: "Peru", TotalQuantity: 7},
	}, top)

	all := TopCountries(view, 20)
	assert.Len(t, all, 4, "fewer countries than n returns all; blank country is dropped")
	assert.Equal(t, models.CountryTotal{Country: "Japan", TotalQuantity: 0}, all[3])
}

func TestTopCountries_TiesByName(t *testing.T) {
	view := []models.Record{record("Zambia", 5, 0), record("Austria", 5, 0), record("Mali", 5, 0)}

	top := TopCountries(view, 5)
	require.Len(t, top, 3)
	assert.Equal(t, "Austria", top[0].Country)
	assert.Equal(t, "Mali", top[1].Country)
	assert.Equal(t, "Zambia", top[2].Country)
}

func TestTopCountries_Empty(t *testing.T) {
	assert.Empty(t, TopCountries(nil, 10))
	assert.Empty(t, CountryShare(nil))
}

func TestCountryShare_ZeroTotals(t *testing.T) {
	share := CountryShare([]models.CountryTotal{{Country: "A"}, {Country: "B"}})
	assert.Equal(t, []models.CountryShare{{Country: "A"}, {Country: "B"}}, share)
}

func TestDistribution_Bins(t *testing.T) {
	var view []models.Record
	for i := 0; i <= 30; i++ {
		view = append(view, record("A", 1, float64(i)))
	}
	view = append(view, models.Record{Transaction: models.Transaction{Country: "A"}})

	dist := Distribution(view, models.ColumnValue)

	assert.Equal(t, models.ColumnValue, dist.Variable)
	assert.Equal(t, 31, dist.Count, "null values are skipped")
	require.Len(t, dist.Bins, HistogramBins)
	assert.Equal(t, 0.0, dist.Bins[0].Lower)
	assert.Equal(t, 30.0, dist.Bins[HistogramBins-1].Upper)

	total := 0
	for _, b := range dist.Bins {
		total += b.Count
	}
	assert.Equal(t, 31, total, "every value lands in a bin")
	assert.Equal(t, 2, dist.Bins[HistogramBins-1].Count, "maximum falls in the last bin")
	assert.InDelta(t, 31.0, dist.Scale, 1e-9)

	require.Len(t, dist.Density, densityGridSize)
	assert.Equal(t, 0.0, dist.Density[0].X)
	assert.InDelta(t, 30.0, dist.Density[densityGridSize-1].X, 1e-9)
	for _, p := range dist.Density {
		assert.True(t, p.Density > 0)
	}
}

func TestDistribution_SelectsVariable(t *testing.T) {
	view := []models.Record{record("A", 1, 100), record("A", 3, 200)}

	dist := Distribution(view, models.ColumnQuantity)
	assert.Equal(t, 1.0, dist.Bins[0].Lower)
	assert.Equal(t, 3.0, dist.Bins[HistogramBins-1].Upper)
}

func TestDistribution_Degenerate(t *testing.T) {
	empty := Distribution(nil, models.ColumnWeight)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, []models.HistogramBin{{Lower: 0, Upper: 1, Count: 0}}, empty.Bins)
	assert.Empty(t, empty.Density)

	constant := Distribution([]models.Record{record("A", 1, 5), record("B", 1, 5)}, models.ColumnValue)
	assert.Equal(t, []models.HistogramBin{{Lower: 4.5, Upper: 5.5, Count: 2}}, constant.Bins)
	assert.Empty(t, constant.Density)
}

func TestDistribution_KernelDensity(t *testing.T) {
	// sd = sqrt(2), bandwidth = sqrt(2) * 2^(-1/5) ~ 1.23114.
	dist := Distribution([]models.Record{record("A", 1, 0), record("A", 1, 2)}, models.ColumnValue)

	require.Len(t, dist.Density, densityGridSize)
	first, last := dist.Density[0], dist.Density[densityGridSize-1]
	assert.Equal(t, 0.0, first.X)
	assert.InDelta(t, 0.2053237, first.Density, 1e-6)
	assert.InDelta(t, 2.0, last.X, 1e-12)
	assert.InDelta(t, first.Density, last.Density, 1e-12, "density is symmetric around the mean")
	assert.InDelta(t, 2.0/HistogramBins*2, dist.Scale, 1e-12)
}

func TestDistribution_OverflowingRange(t *testing.T) {
	view := []models.Record{record("A", 1, -1e308), record("B", 1, 1e308)}

	var dist models.Distribution
	require.NotPanics(t, func() { dist = Distribution(view, models.ColumnValue) })

	require.Len(t, dist.Bins, 1)
	assert.Equal(t, 2, dist.Bins[0].Count)
	assert.Equal(t, 2, dist.Count)
	assert.Empty(t, dist.Density)
}

func TestCorrelation(t *testing.T) {
	var view []models.Record
	for i := 1; i <= 10; i++ {
		r := record("A", float64(i), float64(2*i))
		r.Weight = models.Num(float64(-i))
		r.CustomsCode = models.Num(7)
		if i%2 == 0 {
			r.InvoiceNumber = models.Num(float64(i * i))
		}
		view = append(view, r)
	}

	m := Correlation(view)
	require.Equal(t, models.CorrelationColumns, m.Columns)
	require.Len(t, m.Values, 5)

	quantity, value, customs, weight, invoice := 0, 1, 2, 3, 4

	assert.InDelta(t, 1.0, m.Values[quantity][value].Value, 1e-12)
	assert.InDelta(t, -1.0, m.Values[quantity][weight].Value, 1e-12)
	assert.True(t, m.Values[quantity][invoice].Valid, "pairwise complete rows are used")
	assert.False(t, m.Values[quantity][customs].Valid, "constant column has no correlation")
	assert.False(t, m.Values[customs][customs].Valid, "constant column diagonal is null")

	for i := range m.Values {
		for j := range m.Values[i] {
			assert.Equal(t, m.Values[i][j], m.Values[j][i], "matrix is symmetric")
		}
	}
	for _, i := range []int{quantity, value, weight, invoice} {
		assert.Equal(t, models.Num(1), m.Values[i][i])
	}
}

func TestCorrelation_Empty(t *testing.T) {
	m := Correlation(nil)
	require.Len(t, m.Values, 5)
	for _, row := range m.Values {
		for _, cell := range row {
			assert.False(t, cell.Valid)
		}
	}
}

func TestTimeTrend(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 3, d, 0, 0, 0, 0, time.UTC) }
	undated := record("A", 100, 1)

	view := []models.Record{dated(day(5), 2), dated(day(1), 4), dated(day(5), 3), undated, dated(day(9), 1)}

	trend := TimeTrend(view, true)
	assert.True(t, trend.Available)
	assert.Equal(t, []models.TrendPoint{
		{Date: day(1), TotalQuantity: 4},
		{Date: day(5), TotalQuantity: 5},
		{Date: day(9), TotalQuantity: 1},
	}, trend.Points, "gaps are not zero-filled and undated rows are skipped")
}

func TestTimeTrend_Unavailable(t *testing.T) {
	trend := TimeTrend([]models.Record{record("A", 1, 1)}, false)
	assert.False(t, trend.Available)
	assert.Empty(t, trend.Points)
}

func TestSummarize(t *testing.T) {
	view := []models.Record{record("A", 10, 1000.10), record("B", 5, 234.45)}
	view = append(view, models.Record{Transaction: models.Transaction{Quantity: models.Num(1)}})

	m := Summarize(view)
	assert.False(t, m.Empty)
	assert.True(t, m.TotalValue.Equal(decimal.RequireFromString("1234.55")), "total = %s", m.TotalValue)
	assert.Equal(t, 16.0, m.TotalQuantity)
	assert.True(t, m.AverageValue.Round(3).Equal(decimal.RequireFromString("617.275")), "avg = %s", m.AverageValue)

	labels := MetricLabels(m)
	assert.Equal(t, []models.MetricLabel{
		{Label: "Total Value", Value: "$1,234.55"},
		{Label: "Total Quantity", Value: "16"},
		{Label: "Average Transaction Value", Value: "$617.28"},
	}, labels)
}

func TestSummarize_Empty(t *testing.T) {
	m := Summarize(nil)
	assert.True(t, m.Empty)
	assert.True(t, m.TotalValue.IsZero())
	assert.True(t, m.AverageValue.IsZero())
	assert.Equal(t, 0.0, m.TotalQuantity)
	assert.False(t, math.IsNaN(m.TotalQuantity))

	labels := MetricLabels(m)
	assert.Equal(t, "$0.00", labels[0].Value)
	assert.Equal(t, "0", labels[1].Value)
	assert.Equal(t, "$0.00", labels[2].Value)
}

func TestSummarize_NoValidValues(t *testing.T) {
	view := []models.Record{{Transaction: models.Transaction{Country: "A", Quantity: models.Num(3)}}}

	m := Summarize(view)
	assert.True(t, m.Empty, "rows without any Value count as no data")
	assert.True(t, m.TotalValue.IsZero())
	assert.True(t, m.AverageValue.IsZero())
	assert.Equal(t, 3.0, m.TotalQuantity)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", FormatMoney(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "12,346", FormatCount(12345.6))
}

func BenchmarkDistribution(b *testing.B) {
	view := make([]models.Record, 1500)
	for i := range view {
		view[i] = record("A", float64(i%97), float64(i*13%1000))
	}
	for b.Loop() {
		_ = Distribution(view, models.ColumnValue)
	}
}
