package calendar

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

// ReservationProvider is the persistence port the engine reads from.
// Implementations return every reservation of the resource regardless of status, in any order.
type ReservationProvider interface {
	ListReservationsFor(ctx context.Context, resourceID string, kind model.ResourceKind) ([]model.Reservation, error)
}

// Candidate describes an interval a booking wants to assign to a resource.
type Candidate struct {
	ResourceID string
	Kind       model.ResourceKind
	Range      TimeRange

	// ExcludeReservationID lets a reservation being updated skip itself.
	ExcludeReservationID uuid.UUID
}

func (c Candidate) validate() error {
	if !c.Range.Valid() {
		return &InvalidIntervalError{
			ResourceID: c.ResourceID,
			Kind:       c.Kind,
			Start:      c.Range.Start,
			End:        c.Range.End,
		}
	}
	return nil
}

// blockedBy reports whether r prevents the candidate from being committed.
func (c Candidate) blockedBy(r *model.Reservation) bool {
	if r.ResourceID != c.ResourceID || r.ResourceKind != c.Kind {
		return false
	}
	if !r.Status.BlocksResource() {
		return false
	}
	if c.ExcludeReservationID != uuid.Nil && r.ID == c.ExcludeReservationID {
		return false
	}
	return c.Range.Overlaps(TimeRange{Start: r.StartsAt, End: r.EndsAt})
}

// HasConflict reports whether any non-cancelled reservation of the candidate's
// resource overlaps the candidate interval.
func HasConflict(c Candidate, existing []model.Reservation) (bool, error) {
	if err := c.validate(); err != nil {
		return false, err
	}
	for i := range existing {
		if c.blockedBy(&existing[i]) {
			return true, nil
		}
	}
	return false, nil
}

// FindConflictingReservations returns the blocking reservations ordered by start.
func FindConflictingReservations(c Candidate, existing []model.Reservation) ([]model.Reservation, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	var conflicts []model.Reservation
	for i := range existing {
		if c.blockedBy(&existing[i]) {
			conflicts = append(conflicts, existing[i])
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].StartsAt.Equal(conflicts[j].StartsAt) {
			return conflicts[i].StartsAt.Before(conflicts[j].StartsAt)
		}
		return conflicts[i].ID.String() < conflicts[j].ID.String()
	})

	return conflicts, nil
}

// IsResourceAvailable loads the resource's reservations through p and checks the candidate.
func IsResourceAvailable(ctx context.Context, p ReservationProvider, c Candidate) (bool, error) {
	if err := c.validate(); err != nil {
		return false, err
	}

	existing, err := p.ListReservationsFor(ctx, c.ResourceID, c.Kind)
	if err != nil {
		return false, fmt.Errorf("list reservations for %s %s: %w", c.Kind, c.ResourceID, err)
	}

	conflict, err := HasConflict(c, existing)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// EnsureAvailable is like IsResourceAvailable but returns a *ConflictError
// carrying the blocking reservations when the resource is taken.
func EnsureAvailable(ctx context.Context, p ReservationProvider, c Candidate) error {
	if err := c.validate(); err != nil {
		return err
	}

	existing, err := p.ListReservationsFor(ctx, c.ResourceID, c.Kind)
	if err != nil {
		return fmt.Errorf("list reservations for %s %s: %w", c.Kind, c.ResourceID, err)
	}

	conflicts, err := FindConflictingReservations(c, existing)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{
			ResourceID: c.ResourceID,
			Kind:       c.Kind,
			Range:      c.Range,
			Conflicts:  conflicts,
		}
	}
	return nil
}
