// Package timewindow converts local wall-clock input into absolute UTC
// instants and compares the resulting half-open intervals.
//
// Nothing in this package looks at the process clock or time.Local; results
// depend only on the arguments.
package timewindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
)

// DateLayout is the calendar date label format used throughout the system.
const DateLayout = "2006-01-02"

var timeLayouts = []string{"15:04", "15:04:05"}

// LoadLocation resolves an IANA timezone name. The empty name and "Local"
// are rejected so a caller can never silently inherit the server's zone.
func LoadLocation(tz string) (*time.Location, error) {
	name := strings.TrimSpace(tz)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidTimezone, tz)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidTimezone, tz)
	}
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD label into midnight UTC of that civil date.
func ParseDate(calendarDate string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(calendarDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", apperr.ErrInvalidTimeFormat, calendarDate)
	}
	return d, nil
}

// AddDays returns the label that is n civil days after calendarDate.
func AddDays(calendarDate string, n int) (string, error) {
	d, err := ParseDate(calendarDate)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

func parseClock(localTime string) (time.Time, error) {
	s := strings.TrimSpace(localTime)
	for _, layout := range timeLayouts {
		if c, err := time.Parse(layout, s); err == nil {
			return c, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q", apperr.ErrInvalidTimeFormat, localTime)
}

// ToUTCInstant combines a calendar date and an "HH:mm" (or "HH:mm:ss") wall
// clock reading under the named timezone and returns the absolute instant in
// UTC. The timezone is validated before the date and time are parsed.
//
// Wall clock readings that a DST transition skips or repeats are resolved by
// Resolve.
func ToUTCInstant(calendarDate, localTime, timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	d, err := ParseDate(calendarDate)
	if err != nil {
		return time.Time{}, err
	}
	c, err := parseClock(localTime)
	if err != nil {
		return time.Time{}, err
	}
	return Resolve(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), loc), nil
}

// Resolve maps a wall clock reading in loc to a UTC instant.
//
// A reading that exists exactly once maps to that instant. A reading repeated
// by a backward transition maps to its earlier occurrence. A reading skipped
// by a forward transition is interpreted with the offset in force before the
// transition, which lands it past the gap by the gap's length (02:30 on a
// one-hour spring-forward day becomes 03:30).
func Resolve(year int, month time.Month, day, hour, minute, sec int, loc *time.Location) time.Time {
	naive := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	_, before := naive.Add(-24 * time.Hour).In(loc).Zone()
	_, after := naive.Add(24 * time.Hour).In(loc).Zone()

	early := naive.Add(-time.Duration(before) * time.Second)
	late := naive.Add(-time.Duration(after) * time.Second)
	earlyOK := offsetAt(early, loc) == before
	lateOK := offsetAt(late, loc) == after

	switch {
	case earlyOK && lateOK:
		if late.Before(early) {
			return late.UTC()
		}
		return early.UTC()
	case earlyOK:
		return early.UTC()
	case lateOK:
		return late.UTC()
	default:
		return early.UTC()
	}
}

func offsetAt(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether [windowStart,windowEnd) fully covers
// [innerStart,innerEnd). Shared endpoints count as covered.
func Contains(windowStart, windowEnd, innerStart, innerEnd time.Time) bool {
	return !innerStart.Before(windowStart) && !windowEnd.Before(innerEnd)
}
