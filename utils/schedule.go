package utils

import (
	"fmt"
	"strings"
	"time"
)

// EndOfMonthConvention is the ACTUS end-of-month rule for cycle dates.
type EndOfMonthConvention string

const (
	// SD keeps the anchor's day of month.
	SD EndOfMonthConvention = "SD"
	// EOM pins dates to month end when the anchor is a month end.
	EOM EndOfMonthConvention = "EOM"
)

// ParseEndOfMonthConvention validates the code. Empty means SD.
func ParseEndOfMonthConvention(s string) (EndOfMonthConvention, error) {
	switch EndOfMonthConvention(strings.ToUpper(strings.TrimSpace(s))) {
	case "", SD:
		return SD, nil
	case EOM:
		return EOM, nil
	default:
		return "", fmt.Errorf("ParseEndOfMonthConvention: unknown convention %q", s)
	}
}

// maxScheduleDates bounds generation for degenerate cycles and far horizons.
const maxScheduleDates = 100000

// GenerateSchedule expands anchor + k*cycle up to end.
//
// An empty cycle yields only the anchor. end is appended when addEnd is set.
// With a long stub the last regular date before an off-cycle end is dropped.
func GenerateSchedule(anchor, end time.Time, cycle string, eom EndOfMonthConvention, addEnd bool) ([]time.Time, error) {
	if anchor.IsZero() {
		return nil, fmt.Errorf("GenerateSchedule: anchor is required")
	}
	if strings.TrimSpace(cycle) == "" {
		dates := []time.Time{anchor}
		if addEnd && !end.IsZero() && !end.Equal(anchor) {
			dates = append(dates, end)
		}
		return dates, nil
	}
	if end.IsZero() {
		return nil, fmt.Errorf("GenerateSchedule: end is required with cycle %s", cycle)
	}

	c, err := ParseCycle(cycle)
	if err != nil {
		return nil, err
	}
	pinEOM := eom == EOM && IsEndOfMonth(anchor) && c.Months() > 0

	var dates []time.Time
	next := anchor
	for k := 1; next.Before(end); k++ {
		if len(dates) >= maxScheduleDates {
			return nil, fmt.Errorf("GenerateSchedule: more than %d dates from %s to %s with cycle %s",
				maxScheduleDates, FormatDate(anchor), FormatDate(end), cycle)
		}
		dates = append(dates, next)
		next = c.Shift(anchor, k)
		if pinEOM {
			next = EndOfMonth(next)
		}
	}

	if c.Stub == LongStub && !next.Equal(end) && len(dates) > 1 {
		dates = dates[:len(dates)-1]
	}
	if addEnd && !end.Before(anchor) {
		dates = appendUnique(dates, end)
	}
	return dates, nil
}

// GenerateArraySchedule chains GenerateSchedule over consecutive anchors,
// the last segment running to end. cycles may be empty or match anchors in length.
func GenerateArraySchedule(anchors []time.Time, end time.Time, cycles []string, eom EndOfMonthConvention, addEnd bool) ([]time.Time, error) {
	if len(cycles) > 0 && len(cycles) != len(anchors) {
		return nil, fmt.Errorf("GenerateArraySchedule: %d anchors but %d cycles", len(anchors), len(cycles))
	}
	var out []time.Time
	for i, a := range anchors {
		segEnd := end
		last := i == len(anchors)-1
		if !last {
			segEnd = anchors[i+1]
		}
		cycle := ""
		if len(cycles) > 0 {
			cycle = cycles[i]
		}
		seg, err := GenerateSchedule(a, segEnd, cycle, eom, last && addEnd)
		if err != nil {
			return nil, err
		}
		for _, d := range seg {
			out = appendUnique(out, d)
		}
	}
	SortDates(out)
	return out, nil
}

func appendUnique(dates []time.Time, t time.Time) []time.Time {
	for _, d := range dates {
		if d.Equal(t) {
			return dates
		}
	}
	return append(dates, t)
}
