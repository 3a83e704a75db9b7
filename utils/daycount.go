package utils

import (
	"fmt"
	"strings"
	"time"
)

// DayCountConvention is an ACTUS day count code.
type DayCountConvention string

const (
	AA         DayCountConvention = "AA"         // Actual/Actual ISDA
	A360       DayCountConvention = "A360"       // Actual/360
	A365       DayCountConvention = "A365"       // Actual/365 Fixed
	E30360     DayCountConvention = "30E360"     // 30E/360 (Eurobond)
	E30360ISDA DayCountConvention = "30E360ISDA" // 30E/360 ISDA
	B30360     DayCountConvention = "B30360"     // 30/360 US (bond basis)
)

// ParseDayCountConvention accepts ACTUS codes and the common market labels.
func ParseDayCountConvention(s string) (DayCountConvention, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AA", "A/A", "ACT/ACT", "ACT/ACT ISDA":
		return AA, nil
	case "A360", "A/360", "ACT/360":
		return A360, nil
	case "A365", "A/365", "A/365F", "ACT/365", "ACT/365F":
		return A365, nil
	case "30E360", "30E/360":
		return E30360, nil
	case "30E360ISDA", "30E/360 ISDA":
		return E30360ISDA, nil
	case "B30360", "30/360", "30/360 US":
		return B30360, nil
	default:
		return "", fmt.Errorf("ParseDayCountConvention: unknown convention %q", s)
	}
}

// DayCounter measures accrual periods. Maturity is only read by 30E360ISDA.
type DayCounter struct {
	Convention DayCountConvention
	Maturity   time.Time
}

// Fraction returns the year fraction from start to end.
// It is 0 for start == end and negative for reversed spans.
func (d DayCounter) Fraction(start, end time.Time) float64 {
	if start.Equal(end) {
		return 0
	}
	if end.Before(start) {
		return -d.Fraction(end, start)
	}
	switch d.Convention {
	case AA:
		return actualActualISDA(start, end)
	case A360:
		return Days(start, end) / 360.0
	case A365:
		return Days(start, end) / 365.0
	case E30360:
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		return thirty360(start, end, d1, d2)
	case E30360ISDA:
		d1 := start.Day()
		if isLastOfFebruary(start) || d1 == 31 {
			d1 = 30
		}
		d2 := end.Day()
		if (isLastOfFebruary(end) && !sameDate(end, d.Maturity)) || d2 == 31 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case B30360:
		d1 := start.Day()
		if d1 == 31 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	default:
		return Days(start, end) / 365.0
	}
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

func actualActualISDA(start, end time.Time) float64 {
	if start.Year() == end.Year() {
		return Days(start, end) / daysInYear(start.Year())
	}
	startNext := time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	endFirst := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	frac := Days(start, startNext) / daysInYear(start.Year())
	frac += float64(end.Year() - start.Year() - 1)
	frac += Days(endFirst, end) / daysInYear(end.Year())
	return frac
}

func daysInYear(year int) float64 {
	if isLeap(year) {
		return 366
	}
	return 365
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func isLastOfFebruary(t time.Time) bool {
	return t.Month() == time.February && t.Day() == DaysInMonth(t.Year(), t.Month())
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
