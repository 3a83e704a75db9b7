package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTargetHolidays(t *testing.T) {
	t.Parallel()

	cal, err := calendar.ForID(calendar.TARGET)
	require.NoError(t, err)

	// Easter 2024 was March 31.
	assert.False(t, cal.IsBusinessDay(date(2024, time.March, 29)), "Good Friday")
	assert.False(t, cal.IsBusinessDay(date(2024, time.April, 1)), "Easter Monday")
	assert.False(t, cal.IsBusinessDay(date(2024, time.May, 1)))
	assert.False(t, cal.IsBusinessDay(date(2024, time.December, 25)))
	assert.False(t, cal.IsBusinessDay(date(2024, time.January, 6)), "Saturday")
	assert.True(t, cal.IsBusinessDay(date(2024, time.April, 2)))
}

func TestNoCalendar(t *testing.T) {
	t.Parallel()

	cal, err := calendar.ForID("")
	require.NoError(t, err)
	assert.True(t, cal.IsBusinessDay(date(2024, time.January, 6)))

	_, err = calendar.ForID("XXX")
	require.Error(t, err)
}

func TestParseHolidayCalendar(t *testing.T) {
	t.Parallel()

	cal, err := calendar.ParseHolidayCalendar("KRW", []string{"2024-02-09", "2024-02-12"})
	require.NoError(t, err)
	assert.False(t, cal.IsBusinessDay(date(2024, time.February, 9)))
	assert.False(t, cal.IsBusinessDay(date(2024, time.February, 12)))
	assert.True(t, cal.IsBusinessDay(date(2024, time.February, 13)))

	_, err = calendar.ParseHolidayCalendar("KRW", []string{"2024-13-01"})
	require.Error(t, err)
}

func TestAdjusterConventions(t *testing.T) {
	t.Parallel()

	mf, err := calendar.ForID(calendar.MF)
	require.NoError(t, err)

	saturday := date(2024, time.August, 31)
	tests := []struct {
		conv      calendar.BusinessDayConvention
		wantEvent time.Time
		wantCalc  time.Time
	}{
		{calendar.NOS, saturday, saturday},
		{calendar.SCF, date(2024, time.September, 2), date(2024, time.September, 2)},
		{calendar.SCMF, date(2024, time.August, 30), date(2024, time.August, 30)},
		{calendar.CSF, date(2024, time.September, 2), saturday},
		{calendar.CSMF, date(2024, time.August, 30), saturday},
		{calendar.SCP, date(2024, time.August, 30), date(2024, time.August, 30)},
		{calendar.CSP, date(2024, time.August, 30), saturday},
	}
	for _, tc := range tests {
		a := calendar.NewAdjuster(tc.conv, mf)
		assert.Equal(t, tc.wantEvent, a.ShiftEventTime(saturday), "event %s", tc.conv)
		assert.Equal(t, tc.wantCalc, a.ShiftCalcTime(saturday), "calc %s", tc.conv)
	}
}

func TestModifiedPrecedingStaysInMonth(t *testing.T) {
	t.Parallel()

	mf, _ := calendar.ForID(calendar.MF)
	// 2024-06-01 is a Saturday: preceding would leave June.
	got := calendar.ModifiedPreceding(mf, date(2024, time.June, 1))
	assert.Equal(t, date(2024, time.June, 3), got)
}

func TestParseBusinessDayConvention(t *testing.T) {
	t.Parallel()

	c, err := calendar.ParseBusinessDayConvention("")
	require.NoError(t, err)
	assert.Equal(t, calendar.NOS, c)

	c, err = calendar.ParseBusinessDayConvention("scmf")
	require.NoError(t, err)
	assert.Equal(t, calendar.SCMF, c)

	_, err = calendar.ParseBusinessDayConvention("MODFOL")
	require.Error(t, err)
}

func TestRegisterHolidayCalendar(t *testing.T) {
	t.Parallel()

	cal, err := calendar.ParseHolidayCalendar("ACME", []string{"2024-08-30"})
	require.NoError(t, err)
	require.NoError(t, calendar.Register("acme", cal))

	got, err := calendar.ForID("ACME")
	require.NoError(t, err)
	assert.False(t, got.IsBusinessDay(date(2024, time.August, 30)))
	assert.True(t, got.IsBusinessDay(date(2024, time.August, 29)))

	adj := calendar.NewAdjuster(calendar.SCF, got)
	assert.Equal(t, date(2024, time.September, 2), adj.ShiftEventTime(date(2024, time.August, 30)))

	assert.Error(t, calendar.Register("target", cal))
	assert.Error(t, calendar.Register("", cal))

	_, err = calendar.ForID("NOPE")
	assert.Error(t, err)
}

func TestUSDHolidays(t *testing.T) {
	t.Parallel()

	cal, err := calendar.ForID("usd")
	require.NoError(t, err)

	for _, h := range []time.Time{
		date(2024, time.January, 15),
		date(2024, time.May, 27),
		date(2024, time.June, 19),
		date(2024, time.November, 28),
		date(2026, time.July, 3),
		date(2021, time.December, 31),
	} {
		assert.False(t, cal.IsBusinessDay(h), h.Format("2006-01-02"))
	}
	assert.True(t, cal.IsBusinessDay(date(2024, time.November, 29)))
	assert.True(t, cal.IsBusinessDay(date(2021, time.June, 18)))
}

func TestAsianHolidays(t *testing.T) {
	t.Parallel()

	jpn, err := calendar.ForID(calendar.JPN)
	require.NoError(t, err)
	assert.False(t, jpn.IsBusinessDay(date(2024, time.January, 8)), "Coming of Age Day")
	assert.False(t, jpn.IsBusinessDay(date(2024, time.May, 3)))
	assert.True(t, jpn.IsBusinessDay(date(2024, time.January, 9)))

	krw, err := calendar.ForID(calendar.KRW)
	require.NoError(t, err)
	assert.False(t, krw.IsBusinessDay(date(2024, time.March, 1)))
	assert.False(t, krw.IsBusinessDay(date(2024, time.October, 9)))
	assert.True(t, krw.IsBusinessDay(date(2024, time.October, 8)))
}
