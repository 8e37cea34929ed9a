package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

var ErrResourceConflict = errors.New("resource conflict")

// InvalidIntervalError is returned when a candidate interval is inverted or has unset bounds.
type InvalidIntervalError struct {
	ResourceID string
	Kind       model.ResourceKind
	Start      time.Time
	End        time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf(
		"invalid interval for %s %s: start %s, end %s",
		e.Kind, e.ResourceID,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
	)
}

func (e *InvalidIntervalError) Unwrap() error {
	return ErrInvalidInterval
}

// ConflictError lists the reservations that block a candidate interval.
type ConflictError struct {
	ResourceID string
	Kind       model.ResourceKind
	Range      TimeRange
	Conflicts  []model.Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%s %s is already reserved between %s and %s (reservations: %s)",
		e.Kind, e.ResourceID,
		e.Range.Start.Format(time.RFC3339), e.Range.End.Format(time.RFC3339),
		strings.Join(idStrings(e.ReservationIDs()), ", "),
	)
}

func (e *ConflictError) Unwrap() error {
	return ErrResourceConflict
}

// ReservationIDs returns the ids of the conflicting reservations in start order.
func (e *ConflictError) ReservationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Conflicts))
	for _, r := range e.Conflicts {
		ids = append(ids, r.ID)
	}
	return ids
}

// Describe renders a German message for dispatchers.
func (e *ConflictError) Describe(loc *time.Location) string {
	noun := "Bus"
	if e.Kind == model.ResourceKindDriver {
		noun = "Fahrer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ist im Zeitraum %s bereits verplant", noun, e.ResourceID, FormatRangeForUser(e.Range, loc))
	for _, r := range e.Conflicts {
		fmt.Fprintf(&b, "\n  - %s (%s)", FormatRangeForUser(TimeRange{Start: r.StartsAt, End: r.EndsAt}, loc), r.Status)
	}
	return b.String()
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
