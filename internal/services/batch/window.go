package batch

import (
	"errors"
	"time"
)

var ErrInvalidTime = errors.New("expected RFC3339 timestamp or YYYY-MM-DD date")

// ParseStart parses a window start. A date-only value starts at midnight UTC.
func ParseStart(value string) (time.Time, error) {
	t, _, err := parseBound(value)
	return t, err
}

// ParseEnd parses the exclusive end of a window. A date-only value covers that
// whole day, so it ends at the following midnight UTC.
func ParseEnd(value string) (time.Time, error) {
	t, dateOnly, err := parseBound(value)
	if err != nil {
		return time.Time{}, err
	}
	if dateOnly {
		t = t.AddDate(0, 0, 1)
	}

	return t, nil
}

func parseBound(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}

	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, false, ErrInvalidTime
	}

	return t, true, nil
}
