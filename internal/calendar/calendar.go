// Package calendar does arithmetic on user-local calendar dates exchanged as
// YYYY-MM-DD strings.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format of every calendar date
const Layout = "2006-01-02"

// WeekDays is the length of the weekly window
const WeekDays = 7

// ErrInvalidDate is wrapped by every error caused by a malformed date
var ErrInvalidDate = errors.New("invalid date")

// Parse parses a YYYY-MM-DD date. The result is midnight UTC so that day
// arithmetic never crosses a DST boundary.
func Parse(date string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}
	return t, nil
}

// Valid reports whether date is a well-formed calendar date
func Valid(date string) bool {
	_, err := Parse(date)
	return err == nil
}

// Today returns the calendar date of now as seen in loc
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(Layout)
}

// AddDays shifts a date by n days (n may be negative)
func AddDays(date string, n int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(Layout), nil
}

// Week returns the 7 dates ending at ref, oldest first
func Week(ref string) ([]string, error) {
	t, err := Parse(ref)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, WeekDays)
	for i := WeekDays - 1; i >= 0; i-- {
		days = append(days, t.AddDate(0, 0, -i).Format(Layout))
	}
	return days, nil
}
