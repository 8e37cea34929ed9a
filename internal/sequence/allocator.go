package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultPrefix = "ER"

// CounterStore hands out the next sequence number for a YYMM bucket.
// GetAndIncrement must be atomic per key: it returns the newly issued value,
// starting at 1 for an unseen key.
type CounterStore interface {
	GetAndIncrement(ctx context.Context, yearMonthKey string) (int64, error)
}

// YearMonthKey returns the YYMM bucket for t, e.g. "2506" for June 2025.
func YearMonthKey(t time.Time) string {
	return t.Format("0601")
}

// ValidateYearMonthKey checks a YYMM key: four digits with a month of 01..12.
func ValidateYearMonthKey(key string) error {
	if len(key) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidYearMonthKey, key)
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidYearMonthKey, key)
		}
	}
	month, _ := strconv.Atoi(key[2:])
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %q", ErrInvalidYearMonthKey, key)
	}
	return nil
}

// FormatBookingNumber renders PREFIX-YYMM-NNNN.
func FormatBookingNumber(prefix, yearMonthKey string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, yearMonthKey, seq)
}

// ParseBookingNumber splits a booking number back into its parts.
func ParseBookingNumber(number string) (prefix, yearMonthKey string, seq int64, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", "", 0, fmt.Errorf("malformed booking number %q", number)
	}
	if err := ValidateYearMonthKey(parts[1]); err != nil {
		return "", "", 0, err
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq <= 0 || len(parts[2]) < 4 {
		return "", "", 0, fmt.Errorf("malformed booking number %q", number)
	}
	return parts[0], parts[1], seq, nil
}

// Allocator mints month-scoped booking numbers on top of a CounterStore.
type Allocator struct {
	store  CounterStore
	prefix string
}

func NewAllocator(store CounterStore, prefix string) *Allocator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Allocator{store: store, prefix: prefix}
}

// NextBookingNumber issues the next number for yearMonthKey.
// Store failures come back as *CounterPersistenceError.
func (a *Allocator) NextBookingNumber(ctx context.Context, yearMonthKey string) (string, error) {
	if err := ValidateYearMonthKey(yearMonthKey); err != nil {
		return "", err
	}

	seq, err := a.store.GetAndIncrement(ctx, yearMonthKey)
	if err != nil {
		return "", &CounterPersistenceError{YearMonthKey: yearMonthKey, Err: err}
	}
	if seq <= 0 {
		return "", &CounterPersistenceError{
			YearMonthKey: yearMonthKey,
			Err:          errors.New("store returned non-positive sequence " + strconv.FormatInt(seq, 10)),
		}
	}

	return FormatBookingNumber(a.prefix, yearMonthKey, seq), nil
}

// NextBookingNumberAt derives the bucket from now and issues the next number.
func (a *Allocator) NextBookingNumberAt(ctx context.Context, now time.Time) (string, error) {
	return a.NextBookingNumber(ctx, YearMonthKey(now))
}
