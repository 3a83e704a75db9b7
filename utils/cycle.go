package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodUnit is the unit letter of a cycle.
type PeriodUnit byte

const (
	Day      PeriodUnit = 'D'
	Week     PeriodUnit = 'W'
	Month    PeriodUnit = 'M'
	Quarter  PeriodUnit = 'Q'
	HalfYear PeriodUnit = 'H'
	Year     PeriodUnit = 'Y'
)

// Stub says how an incomplete final period is treated.
type Stub byte

const (
	// LongStub merges the incomplete final period into the previous one.
	LongStub Stub = '0'
	// ShortStub keeps the incomplete final period on its own.
	ShortStub Stub = '1'
)

// Cycle is a parsed ACTUS cycle such as "P1ML0" or "P6ML1".
type Cycle struct {
	N    int
	Unit PeriodUnit
	Stub Stub
}

// ParseCycle parses P<n><D|W|M|Q|H|Y>L<0|1>. The stub suffix is optional and defaults to short.
func ParseCycle(s string) (Cycle, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(raw, "P") || len(raw) < 3 {
		return Cycle{}, fmt.Errorf("ParseCycle: invalid cycle %q", s)
	}
	body := raw[1:]
	stub := ShortStub
	if i := strings.IndexByte(body, 'L'); i >= 0 {
		switch body[i+1:] {
		case "0":
			stub = LongStub
		case "1":
			stub = ShortStub
		default:
			return Cycle{}, fmt.Errorf("ParseCycle: invalid stub in %q", s)
		}
		body = body[:i]
	}
	if len(body) < 2 {
		return Cycle{}, fmt.Errorf("ParseCycle: invalid cycle %q", s)
	}
	unit := PeriodUnit(body[len(body)-1])
	switch unit {
	case Day, Week, Month, Quarter, HalfYear, Year:
	default:
		return Cycle{}, fmt.Errorf("ParseCycle: invalid period unit in %q", s)
	}
	n, err := strconv.Atoi(body[:len(body)-1])
	if err != nil || n <= 0 {
		return Cycle{}, fmt.Errorf("ParseCycle: invalid period length in %q", s)
	}
	return Cycle{N: n, Unit: unit, Stub: stub}, nil
}

// String renders the cycle back into ACTUS notation.
func (c Cycle) String() string {
	return fmt.Sprintf("P%d%cL%c", c.N, c.Unit, c.Stub)
}

// Months returns the cycle length in months, or 0 for day and week cycles.
func (c Cycle) Months() int {
	switch c.Unit {
	case Month:
		return c.N
	case Quarter:
		return 3 * c.N
	case HalfYear:
		return 6 * c.N
	case Year:
		return 12 * c.N
	default:
		return 0
	}
}

// Shift adds k cycle periods to t. Month based cycles clamp to the month end like EDATE.
func (c Cycle) Shift(t time.Time, k int) time.Time {
	switch c.Unit {
	case Day:
		return t.AddDate(0, 0, c.N*k)
	case Week:
		return t.AddDate(0, 0, 7*c.N*k)
	default:
		return AddMonth(t, c.Months()*k)
	}
}
