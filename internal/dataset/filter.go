package dataset

import (
	"strings"
	"time"

	"tradedash/internal/models"
)

// Filter returns the rows whose Import_Export equals direction exactly. When
// parseDates is set each record's Date is parsed day-first; rows with an
// unparseable date are kept with HasDate false.
func Filter(sample []models.Transaction, direction models.Direction, parseDates bool) []models.Record {
	view := make([]models.Record, 0, len(sample)/2)
	for _, tx := range sample {
		if tx.ImportExport != string(direction) {
			continue
		}
		rec := models.Record{Transaction: tx}
		if parseDates {
			rec.Date, rec.HasDate = ParseDayFirst(tx.DateRaw)
		}
		view = append(view, rec)
	}
	return view
}

// Day-first layouts, tried in order. "2" and "1" also accept zero-padded values.
var dayFirstLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2-1-2006 15:04:05",
	"2/1/2006 15:04:05",
	"2-1-2006 15:04",
	"2/1/2006 15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"2-1-06",
	"2/1/06",
	"2.1.06",
}

// ParseDayFirst reads ambiguous numeric dates as day/month/year and returns
// the calendar day in UTC.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
