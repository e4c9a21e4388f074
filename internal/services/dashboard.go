package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tradedash/internal/aggregate"
	"tradedash/internal/dataset"
	"tradedash/internal/models"
	"tradedash/internal/observability"
)

var ErrInvalidSelections = errors.New("invalid selections")

type Options struct {
	SampleSize int
	Seed       uint64
}

func DefaultOptions() Options {
	return Options{SampleSize: dataset.DefaultSampleSize, Seed: dataset.DefaultSeed}
}

// Dashboard answers dashboard requests from an immutable table and the
// sample drawn from it once at construction. Compute keeps no state between
// calls, so it is safe for concurrent use.
type Dashboard struct {
	table    *dataset.Table
	sample   []models.Transaction
	opts     Options
	logger   *slog.Logger
	computed atomic.Int64
}

func NewDashboard(table *dataset.Table, opts Options, logger *slog.Logger) (*Dashboard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sample, err := dataset.Sample(table, opts.SampleSize, dataset.NewRand(opts.Seed))
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table.Source, err)
	}

	logger.Info("sample drawn",
		"rows", table.Len(),
		"sample_size", len(sample),
		"seed", opts.Seed,
	)

	return &Dashboard{
		table:  table,
		sample: sample,
		opts:   opts,
		logger: logger,
	}, nil
}

// View returns the sample rows matching direction, dates parsed.
func (d *Dashboard) View(direction models.Direction) []models.Record {
	return dataset.Filter(d.sample, direction, d.table.HasDate)
}

// Compute derives every panel for sel.
func (d *Dashboard) Compute(ctx context.Context, sel models.Selections) (*models.DashboardResult, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.compute")
	defer span.Finish()
	span.SetTag("direction", string(sel.Direction))
	span.SetTag("variable", sel.Variable)
	span.SetInt("top_n", sel.TopN)

	if err := sel.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidSelections, err)
		span.SetError(err)
		return nil, err
	}

	view := d.View(sel.Direction)
	span.SetInt("rows", len(view))

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	top := aggregate.TopCountries(view, sel.TopN)
	dist := aggregate.Distribution(view, sel.Variable)

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	corr := aggregate.Correlation(view)
	trend := aggregate.TimeTrend(view, d.table.HasDate)
	metrics := aggregate.Summarize(view)

	d.computed.Add(1)
	if len(view) == 0 {
		d.logger.DebugContext(ctx, "empty filtered view", "direction", sel.Direction)
	}

	titles := TitlesFor(sel)
	return &models.DashboardResult{
		Selections:   sel,
		Rows:         len(view),
		TopCountries: models.Panel[[]models.CountryTotal]{Title: titles.TopCountries, Data: top},
		Distribution: models.Panel[models.Distribution]{Title: titles.Distribution, Data: dist},
		Correlation:  models.Panel[models.CorrelationMatrix]{Title: titles.Correlation, Data: corr},
		TimeTrend:    models.Panel[models.TimeTrend]{Title: titles.TimeTrend, Data: trend},
		CountryShare: models.Panel[[]models.CountryShare]{Title: titles.CountryShare, Data: aggregate.CountryShare(top)},
		Metrics:      metrics,
		MetricLabels: aggregate.MetricLabels(metrics),
		ComputedAt:   time.Now().UTC(),
	}, nil
}

// Titles are the panel headings for one set of selections.
type Titles struct {
	TopCountries string
	Distribution string
	Correlation  string
	TimeTrend    string
	CountryShare string
}

func TitlesFor(sel models.Selections) Titles {
	return Titles{
		TopCountries: fmt.Sprintf("Top %d Countries by %s Volume", sel.TopN, sel.Direction),
		Distribution: fmt.Sprintf("Distribution of %s", sel.Variable),
		Correlation:  "Correlation Heatmap of Non-Categorical Variables",
		TimeTrend:    fmt.Sprintf("%s Trends Over Time", sel.Direction),
		CountryShare: fmt.Sprintf("Country Share of %s Volume", sel.Direction),
	}
}

// Utility method for monitoring
func (d *Dashboard) Stats() map[string]any {
	return map[string]any{
		"record_count": d.table.Len(),
		"sample_size":  len(d.sample),
		"seed":         d.opts.Seed,
		"has_date":     d.table.HasDate,
		"source":       d.table.Source,
		"loaded_at":    d.table.LoadedAt,
		"computed":     d.computed.Load(),
	}
}
