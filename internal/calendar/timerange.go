package calendar

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("invalid interval")

// TimeRange is a closed interval [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a range and rejects zero or inverted bounds.
// A zero-length range (Start == End) is valid.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidInterval
	}
	if end.Before(start) {
		return TimeRange{}, ErrInvalidInterval
	}
	return TimeRange{Start: start, End: end}, nil
}

// Valid reports whether both bounds are set and Start <= End.
func (tr TimeRange) Valid() bool {
	return !tr.Start.IsZero() && !tr.End.IsZero() && !tr.End.Before(tr.Start)
}

// Overlaps reports whether tr and other share at least one instant.
// Touching endpoints count: [a,b] and [c,d] overlap iff a <= d && c <= b.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return !tr.Start.After(other.End) && !other.Start.After(tr.End)
}
