package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts YYYY-MM-DD, ISO local date-time and RFC3339. Results are in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseDate: unsupported date %q", s)
}

// FormatDate renders t the way ACTUS terms carry timestamps.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// Days returns the number of days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// DaysInMonth returns the length of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsEndOfMonth reports whether t falls on the last calendar day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.Day() == DaysInMonth(t.Year(), t.Month())
}

// EndOfMonth moves t to the last calendar day of its month, keeping the clock time.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()),
		t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location()).AddDate(0, months, 0)
	day := min(t.Day(), DaysInMonth(first.Year(), first.Month()))
	return first.AddDate(0, 0, day-1)
}
