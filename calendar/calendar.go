package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CalendarID identifies a business-day calendar.
type CalendarID string

const (
	// NC treats every day as a business day.
	NC CalendarID = "NC"
	// MF treats Monday to Friday as business days.
	MF     CalendarID = "MF"
	TARGET CalendarID = "TARGET"
	USD    CalendarID = "USD"
	JPN    CalendarID = "JPN"
	KRW    CalendarID = "KRW"
)

// Calendar decides whether a date is a business day.
type Calendar interface {
	IsBusinessDay(t time.Time) bool
}

// NoHolidays is the NC calendar.
type NoHolidays struct{}

func (NoHolidays) IsBusinessDay(time.Time) bool { return true }

// HolidayCalendar is Monday to Friday minus a fixed holiday set.
type HolidayCalendar struct {
	Name     string
	holidays map[string]struct{}
	rule     func(year int) []time.Time
}

// NewHolidayCalendar builds a weekday calendar with the given holidays.
func NewHolidayCalendar(name string, holidays ...time.Time) *HolidayCalendar {
	c := &HolidayCalendar{Name: name, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format("2006-01-02")] = struct{}{}
	}
	return c
}

// ParseHolidayCalendar builds a weekday calendar from YYYY-MM-DD strings.
func ParseHolidayCalendar(name string, holidays []string) (*HolidayCalendar, error) {
	c := NewHolidayCalendar(name)
	for _, h := range holidays {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("ParseHolidayCalendar: %s: invalid holiday %q: %w", name, h, err)
		}
		c.holidays[d.Format("2006-01-02")] = struct{}{}
	}
	return c, nil
}

func (c *HolidayCalendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if _, ok := c.holidays[t.Format("2006-01-02")]; ok {
		return false
	}
	if c.rule != nil {
		for _, h := range c.rule(t.Year()) {
			if sameDay(h, t) {
				return false
			}
		}
	}
	return true
}

var (
	registeredMu sync.RWMutex
	registered   = make(map[CalendarID]Calendar)
)

func normalize(id CalendarID) CalendarID {
	return CalendarID(strings.ToUpper(strings.TrimSpace(string(id))))
}

// Register makes cal resolvable by ForID under id, case-insensitively.
// Built-in identifiers cannot be replaced.
func Register(id CalendarID, cal Calendar) error {
	key := normalize(id)
	if key == "" || cal == nil {
		return fmt.Errorf("Register: empty calendar id or nil calendar")
	}
	if _, err := builtin(key); err == nil {
		return fmt.Errorf("Register: %q is a built-in calendar", id)
	}
	registeredMu.Lock()
	registered[key] = cal
	registeredMu.Unlock()
	return nil
}

// ForID resolves a calendar identifier. An empty id resolves to NC.
func ForID(id CalendarID) (Calendar, error) {
	key := normalize(id)
	if cal, err := builtin(key); err == nil {
		return cal, nil
	}
	registeredMu.RLock()
	cal, ok := registered[key]
	registeredMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ForID: unknown calendar %q", id)
	}
	return cal, nil
}

func builtin(key CalendarID) (Calendar, error) {
	switch key {
	case "", NC, "NOCALENDAR":
		return NoHolidays{}, nil
	case MF, "MONDAYTOFRIDAY":
		return NewHolidayCalendar(string(MF)), nil
	case TARGET:
		return withRule(TARGET, targetHolidays), nil
	case USD:
		return withRule(USD, usdHolidays), nil
	case JPN:
		return withRule(JPN, jpnHolidays), nil
	case KRW:
		return withRule(KRW, krwHolidays), nil
	default:
		return nil, fmt.Errorf("unknown calendar %q", key)
	}
}

func withRule(id CalendarID, rule func(year int) []time.Time) *HolidayCalendar {
	c := NewHolidayCalendar(string(id))
	c.rule = rule
	return c
}

// targetHolidays returns the TARGET2 closing days of a year.
func targetHolidays(year int) []time.Time {
	easter := easterSunday(year)
	return []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 26, 0, 0, 0, 0, time.UTC),
	}
}

// usdHolidays returns the US federal holidays of a year. Holidays falling on
// a Saturday are observed on the Friday before, on a Sunday the Monday after.
func usdHolidays(year int) []time.Time {
	out := []time.Time{
		observed(ymd(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		nthWeekday(year, time.May, time.Monday, -1),
		observed(ymd(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.October, time.Monday, 2),
		observed(ymd(year, time.November, 11)),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(ymd(year, time.December, 25)),
	}
	if year >= 2022 {
		out = append(out, observed(ymd(year, time.June, 19)))
	}
	if ny := observed(ymd(year+1, time.January, 1)); ny.Year() == year {
		out = append(out, ny)
	}
	return out
}

// jpnHolidays covers the fixed-date and Happy Monday holidays plus the year-end
// closure. Equinox days and substitute holidays are not computed; add them
// through ParseHolidayCalendar when needed.
func jpnHolidays(year int) []time.Time {
	return []time.Time{
		ymd(year, time.January, 1),
		ymd(year, time.January, 2),
		ymd(year, time.January, 3),
		nthWeekday(year, time.January, time.Monday, 2),
		ymd(year, time.February, 11),
		ymd(year, time.February, 23),
		ymd(year, time.April, 29),
		ymd(year, time.May, 3),
		ymd(year, time.May, 4),
		ymd(year, time.May, 5),
		nthWeekday(year, time.July, time.Monday, 3),
		ymd(year, time.August, 11),
		nthWeekday(year, time.September, time.Monday, 3),
		nthWeekday(year, time.October, time.Monday, 2),
		ymd(year, time.November, 3),
		ymd(year, time.November, 23),
		ymd(year, time.December, 31),
	}
}

// krwHolidays covers the solar-calendar public holidays and the exchange's
// year-end closure. Lunar holidays move every year and are left to
// ParseHolidayCalendar.
func krwHolidays(year int) []time.Time {
	return []time.Time{
		ymd(year, time.January, 1),
		ymd(year, time.March, 1),
		ymd(year, time.May, 5),
		ymd(year, time.June, 6),
		ymd(year, time.August, 15),
		ymd(year, time.October, 3),
		ymd(year, time.October, 9),
		ymd(year, time.December, 25),
		ymd(year, time.December, 31),
	}
}

func ymd(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

// nthWeekday returns the n-th wd of the month, counting from the end when n < 0.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	if n < 0 {
		last := ymd(year, month+1, 0)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -back+7*(n+1))
	}
	first := ymd(year, month, 1)
	ahead := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, ahead+7*(n-1))
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
