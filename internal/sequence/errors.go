package sequence

import (
	"errors"
	"fmt"
)

var (
	ErrCounterPersistence  = errors.New("counter persistence failed")
	ErrInvalidYearMonthKey = errors.New("invalid year-month key")
)

// CounterPersistenceError wraps a counter store failure during number allocation.
// A booking must not be committed when this is returned.
type CounterPersistenceError struct {
	YearMonthKey string
	Err          error
}

func (e *CounterPersistenceError) Error() string {
	return fmt.Sprintf("allocate booking number for %s: %v", e.YearMonthKey, e.Err)
}

func (e *CounterPersistenceError) Unwrap() []error {
	return []error{ErrCounterPersistence, e.Err}
}
