// Package dataset loads the trade transaction table and derives the
// reproducible sample and the filtered view from it.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/errgroup"

	"tradedash/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Table is the loaded source file. It is never modified after Load returns.
type Table struct {
	Source   string
	ModTime  time.Time
	Size     int64
	HasDate  bool
	Rows     []models.Transaction
	LoadedAt time.Time
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Loader reads source files, going through an on-disk cache of parsed
// tables when CacheDir is set.
type Loader struct {
	CacheDir string
	Logger   *slog.Logger
}

func NewLoader(cacheDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{CacheDir: cacheDir, Logger: logger}
}

// Load reads path without a cache.
func Load(ctx context.Context, path string) (*Table, error) {
	return NewLoader("", nil).Load(ctx, path)
}

func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	if l.CacheDir != "" {
		if cached, err := l.loadFromCache(path, info); err == nil {
			l.Logger.Info("loaded table from cache", "source", path, "rows", cached.Len())
			return cached, nil
		}
	}

	start := time.Now()
	table, err := l.parse(ctx, path, info)
	if err != nil {
		return nil, err
	}

	if l.CacheDir != "" {
		if err := l.saveToCache(table); err != nil {
			l.Logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	l.Logger.Info("csv processing complete",
		"source", path,
		"records", table.Len(),
		"has_date", table.HasDate,
		"duration", duration,
	)
	return table, nil
}

func (l *Loader) parse(ctx context.Context, path string, info os.FileInfo) (*Table, error) {
	if info.Size() == 0 {
		return nil, &LoadError{Path: path, Err: ErrEmptyFile}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	df := dataframe.ReadCSV(file,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, &LoadError{Path: path, Err: df.Err}
	}

	records := df.Records()
	if len(records) < 2 {
		return nil, &LoadError{Path: path, Err: ErrEmptyFile}
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	body := records[1:]
	rows := make([]models.Transaction, len(body))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for lo := 0; lo < len(body); lo += batchSize {
		hi := min(lo+batchSize, len(body))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1000 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				rows[i] = cols.transaction(body[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &Table{
		Source:   path,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
		HasDate:  cols.date >= 0,
		Rows:     rows,
		LoadedAt: time.Now(),
	}, nil
}

// columnIndex maps dataset headers to record positions; -1 means absent.
type columnIndex struct {
	transactionID, country, importExport, product, category int
	port, shippingMethod, paymentTerms                      int
	quantity, value, weight, customsCode, invoiceNumber     int
	date                                                    int
}

func mapColumns(header []string) (columnIndex, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for _, required := range models.RequiredColumns {
		if !slices.Contains(names, required) {
			return columnIndex{}, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	idx := func(name string) int {
		return slices.Index(names, name)
	}

	return columnIndex{
		transactionID:  idx(models.ColumnTransactionID),
		country:        idx(models.ColumnCountry),
		importExport:   idx(models.ColumnImportExport),
		product:        idx(models.ColumnProduct),
		category:       idx(models.ColumnCategory),
		port:           idx(models.ColumnPort),
		shippingMethod: idx(models.ColumnShippingMethod),
		paymentTerms:   idx(models.ColumnPaymentTerms),
		quantity:       idx(models.ColumnQuantity),
		value:          idx(models.ColumnValue),
		weight:         idx(models.ColumnWeight),
		customsCode:    idx(models.ColumnCustomsCode),
		invoiceNumber:  idx(models.ColumnInvoiceNumber),
		date:           idx(models.ColumnDate),
	}, nil
}

func (c columnIndex) transaction(record []string) models.Transaction {
	text := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[i])
		if isNull(v) {
			return ""
		}
		return v
	}
	number := func(i int) models.Number {
		return parseNumber(text(i))
	}

	return models.Transaction{
		TransactionID:  text(c.transactionID),
		Country:        text(c.country),
		ImportExport:   text(c.importExport),
		Product:        text(c.product),
		Category:       text(c.category),
		Port:           text(c.port),
		ShippingMethod: text(c.shippingMethod),
		PaymentTerms:   text(c.paymentTerms),
		Quantity:       number(c.quantity),
		Value:          number(c.value),
		Weight:         number(c.weight),
		CustomsCode:    number(c.customsCode),
		InvoiceNumber:  number(c.invoiceNumber),
		DateRaw:        text(c.date),
	}
}

func isNull(v string) bool {
	switch v {
	case "", "NA", "NaN", "<nil>":
		return true
	}
	return false
}

// parseNumber accepts plain and thousands-separated numbers; anything else is null.
func parseNumber(s string) models.Number {
	if s == "" {
		return models.Number{}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Number{}
	}
	return models.Num(f)
}
