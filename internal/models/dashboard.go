package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionExport Direction = "Export"
	DirectionImport Direction = "Import"
)

// Directions lists the selector values in display order.
var Directions = []Direction{DirectionExport, DirectionImport}

// DistributionVariables lists the columns a histogram can be drawn for.
var DistributionVariables = []string{ColumnValue, ColumnQuantity, ColumnWeight}

const (
	MinTopN     = 5
	MaxTopN     = 20
	DefaultTopN = 10
)

// Selections are the user controls driving one dashboard computation.
type Selections struct {
	Direction Direction `json:"direction" yaml:"direction"`
	TopN      int       `json:"top_n" yaml:"top_n"`
	Variable  string    `json:"variable" yaml:"variable"`
}

func DefaultSelections() Selections {
	return Selections{
		Direction: DirectionExport,
		TopN:      DefaultTopN,
		Variable:  ColumnValue,
	}
}

func (s Selections) Validate() error {
	if !slices.Contains(Directions, s.Direction) {
		return fmt.Errorf("direction must be one of Export, Import, got %q", s.Direction)
	}
	if s.TopN < MinTopN || s.TopN > MaxTopN {
		return fmt.Errorf("top_n must be between %d and %d, got %d", MinTopN, MaxTopN, s.TopN)
	}
	if !slices.Contains(DistributionVariables, s.Variable) {
		return fmt.Errorf("variable must be one of Value, Quantity, Weight, got %q", s.Variable)
	}
	return nil
}

type CountryTotal struct {
	Country       string  `json:"country" yaml:"country"`
	TotalQuantity float64 `json:"total_quantity" yaml:"total_quantity"`
}

type CountryShare struct {
	Country    string  `json:"country" yaml:"country"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

type HistogramBin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

type DensityPoint struct {
	X       float64 `json:"x" yaml:"x"`
	Density float64 `json:"density" yaml:"density"`
}

type Distribution struct {
	Variable string         `json:"variable" yaml:"variable"`
	Count    int            `json:"count" yaml:"count"`
	Bins     []HistogramBin `json:"bins" yaml:"bins"`
	Density  []DensityPoint `json:"density" yaml:"density"`
	// Scale converts Density into expected counts per bin (n * bin width).
	Scale float64 `json:"scale" yaml:"scale"`
}

type CorrelationMatrix struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Values  [][]Number `json:"values" yaml:"values"`
}

type TrendPoint struct {
	Date          time.Time `json:"date" yaml:"date"`
	TotalQuantity float64   `json:"total_quantity" yaml:"total_quantity"`
}

type TimeTrend struct {
	Available bool         `json:"available" yaml:"available"`
	Points    []TrendPoint `json:"points" yaml:"points"`
}

type Metrics struct {
	TotalValue    decimal.Decimal `json:"total_value" yaml:"total_value"`
	TotalQuantity float64         `json:"total_quantity" yaml:"total_quantity"`
	AverageValue  decimal.Decimal `json:"average_value" yaml:"average_value"`
	Empty         bool            `json:"empty" yaml:"empty"`
}

// MetricLabel is a formatted scalar ready for a metric widget.
type MetricLabel struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

type Panel[T any] struct {
	Title string `json:"title" yaml:"title"`
	Data  T      `json:"data" yaml:"data"`
}

// DashboardResult is everything one interaction renders.
type DashboardResult struct {
	Selections   Selections               `json:"selections" yaml:"selections"`
	Rows         int                      `json:"rows" yaml:"rows"`
	TopCountries Panel[[]CountryTotal]    `json:"top_countries" yaml:"top_countries"`
	Distribution Panel[Distribution]      `json:"distribution" yaml:"distribution"`
	Correlation  Panel[CorrelationMatrix] `json:"correlation" yaml:"correlation"`
	TimeTrend    Panel[TimeTrend]         `json:"time_trend" yaml:"time_trend"`
	CountryShare Panel[[]CountryShare]    `json:"country_share" yaml:"country_share"`
	Metrics      Metrics                  `json:"metrics" yaml:"metrics"`
	MetricLabels []MetricLabel            `json:"metric_labels" yaml:"metric_labels"`
	ComputedAt   time.Time                `json:"computed_at" yaml:"computed_at"`
}
