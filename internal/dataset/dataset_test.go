package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedash/internal/models"
)

const header = "Transaction_ID,Country,Product,Import_Export,Quantity,Value,Date,Category,Port,Customs_Code,Weight,Shipping_Method,Supplier,Customer,Invoice_Number,Payment_Terms"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// syntheticCSV builds n rows alternating Export/Import across five countries.
func syntheticCSV(n int) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	countries := []string{"Chile", "Peru", "Kenya", "Japan", "Norway"}
	for i := 0; i < n; i++ {
		direction := "Export"
		if i%2 == 1 {
			direction = "Import"
		}
		fmt.Fprintf(&b, "T%05d,%s,item,%s,%d,%d.50,%02d-%02d-2023,Toys,Port,%d,%d.25,Air,Sup,Cus,%d,Prepaid\n",
			i, countries[i%len(countries)], direction, i%100+1, i*3, i%28+1, i%12+1, 100000+i, i%40, 5000+i)
	}
	return b.String()
}

func TestLoad_ValidData(t *testing.T) {
	csv := header + "\n" +
		"T1,Chile,Toys,Export,10,100.5,15-03-2023,Toys,Valparaiso,610712,2.5,Sea,S,C,9001,Net 30\n" +
		"T2,Peru,Bags,Import,,2000,bad-date,Bags,Callao,NA,abc,Air,S,C,9002,Prepaid\n"
	path := createTempCSV(t, csv)

	table, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.True(t, table.HasDate)
	assert.Equal(t, path, table.Source)

	first := table.Rows[0]
	assert.Equal(t, "T1", first.TransactionID)
	assert.Equal(t, "Chile", first.Country)
	assert.Equal(t, "Export", first.ImportExport)
	assert.Equal(t, models.Num(10), first.Quantity)
	assert.Equal(t, models.Num(100.5), first.Value)
	assert.Equal(t, models.Num(2.5), first.Weight)
	assert.Equal(t, models.Num(610712), first.CustomsCode)
	assert.Equal(t, models.Num(9001), first.InvoiceNumber)
	assert.Equal(t, "15-03-2023", first.DateRaw)
	assert.Equal(t, "Sea", first.ShippingMethod)

	second := table.Rows[1]
	assert.False(t, second.Quantity.Valid, "blank quantity should be null")
	assert.False(t, second.CustomsCode.Valid, "NA should be null")
	assert.False(t, second.Weight.Valid, "non-numeric weight should be null")
	assert.True(t, second.Value.Valid)
}

func TestLoad_WithoutDateColumn(t *testing.T) {
	csv := "Country,Import_Export,Quantity,Value,Weight,Customs_Code,Invoice_Number\n" +
		"Chile,Export,1,2,3,4,5\n"
	table, err := Load(context.Background(), createTempCSV(t, csv))
	require.NoError(t, err)
	assert.False(t, table.HasDate)
	assert.Equal(t, "", table.Rows[0].DateRaw)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{name: "empty file", content: "", target: ErrEmptyFile},
		{name: "header only", content: header + "\n"},
		{
			name:    "missing column",
			content: "Country,Import_Export,Quantity,Value\nChile,Export,1,2\n",
			target:  ErrMissingColumn,
		},
		{
			name:    "ragged rows",
			content: header + "\nT1,Chile\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), createTempCSV(t, tt.content))
			require.Error(t, err)

			var loadErr *LoadError
			assert.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, createTempCSV(t, syntheticCSV(20)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_Cache(t *testing.T) {
	cacheDir := t.TempDir()
	path := createTempCSV(t, syntheticCSV(50))
	loader := NewLoader(cacheDir, nil)

	first, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "cache file should be written")

	second, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)
	assert.True(t, first.ModTime.Equal(second.ModTime))

	// A changed source invalidates the cache.
	require.NoError(t, os.WriteFile(path, []byte(syntheticCSV(60)), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 60, third.Len())
}

func TestSampleIndices_Scenario(t *testing.T) {
	a, err := SampleIndices(5000, DefaultSampleSize, NewRand(DefaultSeed))
	require.NoError(t, err)
	b, err := SampleIndices(5000, DefaultSampleSize, NewRand(DefaultSeed))
	require.NoError(t, err)

	assert.Len(t, a, DefaultSampleSize)
	assert.Equal(t, a, b, "same seed must give the same sample")

	seen := make(map[int]bool, len(a))
	for _, i := range a {
		assert.False(t, seen[i], "index %d drawn twice", i)
		assert.True(t, i >= 0 && i < 5000)
		seen[i] = true
	}

	c, err := SampleIndices(5000, DefaultSampleSize, NewRand(DefaultSeed+1))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSample_InsufficientRows(t *testing.T) {
	table := &Table{Rows: make([]models.Transaction, 10)}

	_, err := Sample(table, 11, NewRand(DefaultSeed))

	var insufficient *InsufficientRowsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Have)
	assert.Equal(t, 11, insufficient.Need)
}

func TestSample_InvalidSize(t *testing.T) {
	_, err := Sample(&Table{Rows: make([]models.Transaction, 3)}, 0, NewRand(1))
	assert.Error(t, err)
}

func TestSample_WholeTable(t *testing.T) {
	table, err := Load(context.Background(), createTempCSV(t, syntheticCSV(30)))
	require.NoError(t, err)

	rows, err := Sample(table, 30, NewRand(DefaultSeed))
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, r := range rows {
		ids[r.TransactionID] = true
	}
	assert.Len(t, ids, 30, "sampling the whole table is a permutation")
	assert.Equal(t, "T00000", table.Rows[0].TransactionID, "table is not reordered")
}

func TestFilter(t *testing.T) {
	sample := []models.Transaction{
		{Country: "A", ImportExport: "Export", DateRaw: "01-02-2023"},
		{Country: "B", ImportExport: "Import", DateRaw: "02-02-2023"},
		{Country: "C", ImportExport: "export", DateRaw: "03-02-2023"},
		{Country: "D", ImportExport: "Export", DateRaw: "not a date"},
	}

	view := Filter(sample, models.DirectionExport, true)
	require.Len(t, view, 2, "match is exact and case-sensitive")

	assert.Equal(t, "A", view[0].Country)
	assert.True(t, view[0].HasDate)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), view[0].Date)

	assert.Equal(t, "D", view[1].Country)
	assert.False(t, view[1].HasDate, "bad dates become null, the row stays")

	assert.Equal(t, "01-02-2023", sample[0].DateRaw, "sample is not modified")
}

func TestFilter_WithoutDates(t *testing.T) {
	sample := []models.Transaction{{ImportExport: "Import", DateRaw: "01-02-2023"}}
	view := Filter(sample, models.DirectionImport, false)
	require.Len(t, view, 1)
	assert.False(t, view[0].HasDate)
}

func TestFilter_Empty(t *testing.T) {
	view := Filter(nil, models.DirectionExport, true)
	assert.NotNil(t, view)
	assert.Empty(t, view)
}

func TestParseDayFirst(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"03-04-2021", day(2021, time.April, 3), true},
		{"3/4/2021", day(2021, time.April, 3), true},
		{"25.12.2020", day(2020, time.December, 25), true},
		{"31-01-2022 13:45:00", day(2022, time.January, 31), true},
		{"2022-01-31", day(2022, time.January, 31), true},
		{"7 Mar 2019", day(2019, time.March, 7), true},
		{"05-06-21", day(2021, time.June, 5), true},
		{"13-13-2020", time.Time{}, false},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDayFirst(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func BenchmarkSampleIndices(b *testing.B) {
	for b.Loop() {
		_, _ = SampleIndices(15000, DefaultSampleSize, NewRand(DefaultSeed))
	}
}
