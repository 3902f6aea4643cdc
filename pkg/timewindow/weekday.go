package timewindow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
)

// Weekday is a day of the ISO week. The zero value is Monday and the
// numeric value is the day's offset from the week's Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is one of the seven named days.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts a full English day name in any case.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.TrimSpace(s)
	for i, n := range weekdayNames {
		if strings.EqualFold(n, name) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown day %q", apperr.ErrInvalidDaySelection, s)
}

// UnmarshalJSON accepts a day name in any case.
func (d *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidDaySelection, string(b))
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeekStart returns the label of the Monday of the ISO week that contains
// reference's calendar date as seen in loc.
func WeekStart(reference time.Time, loc *time.Location) string {
	local := reference.In(loc)
	civil := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(civil.Weekday()) + 6) % 7
	return civil.AddDate(0, 0, -offset).Format(DateLayout)
}

// DateInWeek returns the label of day within the ISO week that contains
// reference's calendar date as seen in loc.
func DateInWeek(reference time.Time, loc *time.Location, day Weekday) (string, error) {
	if !day.Valid() {
		return "", fmt.Errorf("%w: %d", apperr.ErrInvalidDaySelection, int(day))
	}
	return AddDays(WeekStart(reference, loc), int(day))
}
