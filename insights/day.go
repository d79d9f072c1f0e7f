// Package insights derives the calendar and dashboard figures of a trade
// journal: signed net totals per calendar day and profit/loss totals per
// month. Every function here is pure; callers re-derive on each render.
package insights

import (
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// DayKey identifies a calendar day independent of time of day.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in t's own location. No time zone
// normalization is applied.
func DayOf(t time.Time) DayKey {
	y, m, d := t.Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// ParseDayKey parses a YYYY-MM-DD string.
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return DayKey{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// Time returns midnight of the day in loc.
func (k DayKey) Time(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

// CalendarMonth returns the month containing the day.
func (k DayKey) CalendarMonth() Month {
	return Month{Year: k.Year, Month: k.Month}
}

// MarshalText lets DayKey be used as a JSON object key.
func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DayKey) UnmarshalText(b []byte) error {
	d, err := ParseDayKey(string(b))
	if err != nil {
		return err
	}
	*k = d
	return nil
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month of t in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Title renders the month as "June 2024".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether the day falls in the month.
func (m Month) Contains(k DayKey) bool {
	return k.Year == m.Year && k.Month == m.Month
}

// Day returns the key of the given day of the month.
func (m Month) Day(day int) DayKey {
	return DayKey{Year: m.Year, Month: m.Month, Day: day}
}

// First returns midnight of the first day of the month in loc.
func (m Month) First(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

func (m Month) Next() Month {
	return MonthOf(m.First(time.UTC).AddDate(0, 1, 0))
}

func (m Month) Prev() Month {
	return MonthOf(m.First(time.UTC).AddDate(0, -1, 0))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
