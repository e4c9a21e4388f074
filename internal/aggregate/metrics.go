package aggregate

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tradedash/internal/models"
)

// Summarize totals Value and Quantity and averages Value over the view. An
// empty view, or one without any valid Value, yields zeros.
func Summarize(view []models.Record) models.Metrics {
	m := models.Metrics{
		TotalValue:   decimal.Zero,
		AverageValue: decimal.Zero,
	}

	var valueCount int64
	for _, r := range view {
		if r.Value.Valid {
			m.TotalValue = m.TotalValue.Add(decimal.NewFromFloat(r.Value.Value))
			valueCount++
		}
		if r.Quantity.Valid {
			m.TotalQuantity += r.Quantity.Value
		}
	}

	m.Empty = valueCount == 0
	if valueCount > 0 {
		m.AverageValue = m.TotalValue.Div(decimal.NewFromInt(valueCount))
	}
	return m
}

var printer = message.NewPrinter(language.English)

// FormatMoney renders d as $X,XXX.XX.
func FormatMoney(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// FormatCount renders f as X,XXX.
func FormatCount(f float64) string {
	return printer.Sprintf("%.0f", f)
}

func MetricLabels(m models.Metrics) []models.MetricLabel {
	return []models.MetricLabel{
		{Label: "Total Value", Value: FormatMoney(m.TotalValue)},
		{Label: "Total Quantity", Value: FormatCount(m.TotalQuantity)},
		{Label: "Average Transaction Value", Value: FormatMoney(m.AverageValue)},
	}
}
