// Package clock supplies the current instant and calendar-day normalization
// for activity accounting. All day arithmetic happens on Day values, which are
// whole days since 1970-01-01 in a single reference time zone.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar day.
const DateLayout = "2006-01-02"

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// System is the wall clock
type System struct{}

// Now returns time.Now()
func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant. Used by tests and replays.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return f.At
}

// Day is a calendar day expressed as days since the Unix epoch.
type Day int32

// Calendar truncates instants to days in one reference location
type Calendar struct {
	loc *time.Location
}

// NewCalendar creates a calendar for the given location (UTC when nil)
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// LoadCalendar creates a calendar from an IANA zone name
func LoadCalendar(name string) (Calendar, error) {
	if name == "" {
		return NewCalendar(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return NewCalendar(loc), nil
}

// Location returns the reference location
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// DayOf returns the calendar day containing t in the reference location
func (c Calendar) DayOf(t time.Time) Day {
	local := t.In(c.Location())
	return DateOf(local.Year(), local.Month(), local.Day())
}

// Today returns the current day according to clk
func (c Calendar) Today(clk Clock) Day {
	return c.DayOf(clk.Now())
}

// Start returns midnight of d in the reference location
func (c Calendar) Start(d Day) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, c.Location())
}

// DateOf returns the Day for a proleptic Gregorian date. Out-of-range
// months and days are normalized the way time.Date does.
func DateOf(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(t.Unix() / 86400)
}

// ParseDay parses a YYYY-MM-DD string
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t.Year(), t.Month(), t.Day()), nil
}

// Date returns the year, month and day of d
func (d Day) Date() (int, time.Month, int) {
	return d.utc().Date()
}

// Year returns the calendar year of d
func (d Day) Year() int {
	return d.utc().Year()
}

// AddDays returns d shifted by n days
func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// Sub returns the number of days from other to d
func (d Day) Sub(other Day) int {
	return int(d - other)
}

// String formats d as YYYY-MM-DD
func (d Day) String() string {
	return d.utc().Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) utc() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// MonthBounds returns the first and last day of the given month
func MonthBounds(year int, month time.Month) (Day, Day) {
	first := DateOf(year, month, 1)
	last := DateOf(year, month+1, 1) - 1
	return first, last
}
