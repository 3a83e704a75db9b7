package calendar

import (
	"fmt"
	"strings"
	"time"
)

// BusinessDayConvention is the ACTUS business day convention code.
//
// SC* conventions shift the event and calculate on the shifted date.
// CS* conventions calculate on the unshifted date and shift only the payment.
type BusinessDayConvention string

const (
	NOS  BusinessDayConvention = "NOS"
	SCF  BusinessDayConvention = "SCF"
	SCMF BusinessDayConvention = "SCMF"
	CSF  BusinessDayConvention = "CSF"
	CSMF BusinessDayConvention = "CSMF"
	SCP  BusinessDayConvention = "SCP"
	SCMP BusinessDayConvention = "SCMP"
	CSP  BusinessDayConvention = "CSP"
	CSMP BusinessDayConvention = "CSMP"
)

// ParseBusinessDayConvention validates a convention code. Empty means NOS.
func ParseBusinessDayConvention(s string) (BusinessDayConvention, error) {
	c := BusinessDayConvention(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case "":
		return NOS, nil
	case NOS, SCF, SCMF, CSF, CSMF, SCP, SCMP, CSP, CSMP:
		return c, nil
	default:
		return "", fmt.Errorf("ParseBusinessDayConvention: unknown convention %q", s)
	}
}

// Adjuster moves schedule dates onto business days.
type Adjuster struct {
	Convention BusinessDayConvention
	Calendar   Calendar
}

// NewAdjuster pairs a convention with a calendar. A nil calendar means NC.
func NewAdjuster(conv BusinessDayConvention, cal Calendar) Adjuster {
	if cal == nil {
		cal = NoHolidays{}
	}
	if conv == "" {
		conv = NOS
	}
	return Adjuster{Convention: conv, Calendar: cal}
}

// ShiftEventTime returns the date on which money moves.
func (a Adjuster) ShiftEventTime(t time.Time) time.Time {
	return a.shift(t)
}

// ShiftCalcTime returns the date used for accrual measurement.
func (a Adjuster) ShiftCalcTime(t time.Time) time.Time {
	switch a.Convention {
	case CSF, CSMF, CSP, CSMP, NOS, "":
		return t
	default:
		return a.shift(t)
	}
}

func (a Adjuster) shift(t time.Time) time.Time {
	cal := a.Calendar
	if cal == nil {
		return t
	}
	switch a.Convention {
	case SCF, CSF:
		return Following(cal, t)
	case SCMF, CSMF:
		return ModifiedFollowing(cal, t)
	case SCP, CSP:
		return Preceding(cal, t)
	case SCMP, CSMP:
		return ModifiedPreceding(cal, t)
	default:
		return t
	}
}

// Following rolls forward to the next business day.
func Following(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// ModifiedFollowing rolls forward unless that leaves the month, then rolls back.
func ModifiedFollowing(cal Calendar, t time.Time) time.Time {
	shifted := Following(cal, t)
	if shifted.Month() != t.Month() {
		return Preceding(cal, t)
	}
	return shifted
}

// Preceding rolls back to the previous business day.
func Preceding(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// ModifiedPreceding rolls back unless that leaves the month, then rolls forward.
func ModifiedPreceding(cal Calendar, t time.Time) time.Time {
	shifted := Preceding(cal, t)
	if shifted.Month() != t.Month() {
		return Following(cal, t)
	}
	return shifted
}
