// Package apperr holds the named failure outcomes of the scheduling core.
// Every core operation returns either a value or an error wrapping exactly
// one of these sentinels; callers use errors.Is or KindOf to branch on them.
package apperr

import "errors"

var (
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrInvalidTimeFormat   = errors.New("invalid time format")
	ErrInvalidDaySelection = errors.New("invalid day selection")
	ErrWindowTooShort      = errors.New("availability window too short")
	ErrInvalidInterval     = errors.New("end is not after start")
	ErrNotAvailable        = errors.New("employee not available")
	ErrShiftOverlap        = errors.New("shift overlaps an existing shift")
	ErrNotFound            = errors.New("not found")
)

// Kind is a stable, machine-readable name for a sentinel.
type Kind string

const (
	KindNone                Kind = ""
	KindInvalidTimezone     Kind = "invalid_timezone"
	KindInvalidTimeFormat   Kind = "invalid_time_format"
	KindInvalidDaySelection Kind = "invalid_day_selection"
	KindWindowTooShort      Kind = "window_too_short"
	KindInvalidInterval     Kind = "invalid_interval"
	KindNotAvailable        Kind = "not_available"
	KindShiftOverlap        Kind = "shift_overlap"
	KindNotFound            Kind = "not_found"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidTimezone, KindInvalidTimezone},
	{ErrInvalidTimeFormat, KindInvalidTimeFormat},
	{ErrInvalidDaySelection, KindInvalidDaySelection},
	{ErrWindowTooShort, KindWindowTooShort},
	{ErrInvalidInterval, KindInvalidInterval},
	{ErrNotAvailable, KindNotAvailable},
	{ErrShiftOverlap, KindShiftOverlap},
	{ErrNotFound, KindNotFound},
}

// KindOf reports which named outcome err carries, or KindNone for
// infrastructure failures (storage, lock backend) and nil.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindNone
}
