package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Leganyst/charter-scheduling/internal/aggregate"
	"github.com/Leganyst/charter-scheduling/internal/calendar"
	"github.com/Leganyst/charter-scheduling/internal/model"
	"github.com/Leganyst/charter-scheduling/internal/repository"
	"github.com/Leganyst/charter-scheduling/internal/sequence"
)

// ErrInvalidRequest marks input the service rejects before touching storage.
var ErrInvalidRequest = errors.New("invalid request")

// SchedulingService exposes availability checks, booking number allocation
// and the derived scheduling figures to the booking workflow.
type SchedulingService struct {
	bookings     repository.BookingRepository
	reservations repository.ReservationRepository
	maintenance  repository.MaintenanceRepository
	drivingLogs  repository.DrivingLogRepository
	allocator    *sequence.Allocator

	logger     *slog.Logger
	displayLoc *time.Location
}

func NewSchedulingService(
	bookings repository.BookingRepository,
	reservations repository.ReservationRepository,
	maintenance repository.MaintenanceRepository,
	drivingLogs repository.DrivingLogRepository,
	allocator *sequence.Allocator,
	logger *slog.Logger,
	displayLoc *time.Location,
) *SchedulingService {
	if logger == nil {
		logger = slog.Default()
	}
	if displayLoc == nil {
		displayLoc = time.UTC
	}
	return &SchedulingService{
		bookings:     bookings,
		reservations: reservations,
		maintenance:  maintenance,
		drivingLogs:  drivingLogs,
		allocator:    allocator,
		logger:       logger,
		displayLoc:   displayLoc,
	}
}

// AvailabilityResult is the outcome of an availability check.
type AvailabilityResult struct {
	Available bool
	Conflicts []model.Reservation
	// German dispatcher message, empty when available.
	Message string
}

// CheckAvailability reports whether the candidate interval is free for its resource.
func (s *SchedulingService) CheckAvailability(ctx context.Context, c calendar.Candidate) (AvailabilityResult, error) {
	err := calendar.EnsureAvailable(ctx, s.reservations, c)

	var conflict *calendar.ConflictError
	switch {
	case err == nil:
		return AvailabilityResult{Available: true}, nil
	case errors.As(err, &conflict):
		s.logger.Info("resource not available",
			"resource_kind", c.Kind,
			"resource_id", c.ResourceID,
			"conflicts", len(conflict.Conflicts),
		)
		return AvailabilityResult{
			Conflicts: conflict.Conflicts,
			Message:   conflict.Describe(s.displayLoc),
		}, nil
	default:
		return AvailabilityResult{}, err
	}
}

// Reserve commits a reservation if its resource is still free.
func (s *SchedulingService) Reserve(ctx context.Context, r *model.Reservation) error {
	if !r.ResourceKind.Valid() {
		return fmt.Errorf("%w: unknown resource kind %q", ErrInvalidRequest, r.ResourceKind)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown reservation status %q", ErrInvalidRequest, r.Status)
	}
	if err := s.reservations.CreateIfAvailable(ctx, r); err != nil {
		return err
	}
	s.logger.Info("reservation created",
		"reservation_id", r.ID,
		"resource_kind", r.ResourceKind,
		"resource_id", r.ResourceID,
	)
	return nil
}

// AllocateBookingNumber mints the next booking number for the month of now.
func (s *SchedulingService) AllocateBookingNumber(ctx context.Context, now time.Time) (string, error) {
	return s.AllocateBookingNumberFor(ctx, sequence.YearMonthKey(now))
}

// AllocateBookingNumberFor mints the next booking number for an explicit YYMM key.
func (s *SchedulingService) AllocateBookingNumberFor(ctx context.Context, yearMonthKey string) (string, error) {
	number, err := s.allocator.NextBookingNumber(ctx, yearMonthKey)
	if err != nil {
		s.logger.Error("booking number allocation failed", "year_month", yearMonthKey, "err", err)
		return "", err
	}
	s.logger.Info("booking number allocated", "booking_number", number)
	return number, nil
}

// BookingRequest describes a charter trip to be booked.
type BookingRequest struct {
	BusID    string
	DriverID string // optional
	Range    calendar.TimeRange
	Status   model.ReservationStatus
	Comment  string
}

// CreateBooking allocates a booking number for the month of now and reserves
// the bus (and driver, if given) for the trip. A failed allocation aborts
// before anything is written; a conflict after allocation leaves a gap in
// the month's sequence.
func (s *SchedulingService) CreateBooking(ctx context.Context, req BookingRequest, now time.Time) (*model.Booking, []model.Reservation, error) {
	if req.BusID == "" {
		return nil, nil, fmt.Errorf("%w: bus id is required", ErrInvalidRequest)
	}
	if !req.Range.Valid() {
		return nil, nil, &calendar.InvalidIntervalError{
			ResourceID: req.BusID,
			Kind:       model.ResourceKindBus,
			Start:      req.Range.Start,
			End:        req.Range.End,
		}
	}
	if req.Status == "" {
		req.Status = model.ReservationStatusPending
	}
	if !req.Status.Valid() || !req.Status.BlocksResource() {
		return nil, nil, fmt.Errorf("%w: cannot book with status %q", ErrInvalidRequest, req.Status)
	}

	number, err := s.AllocateBookingNumber(ctx, now)
	if err != nil {
		return nil, nil, err
	}

	booking := &model.Booking{
		BookingNumber: number,
		Status:        req.Status,
		StartsAt:      req.Range.Start,
		EndsAt:        req.Range.End,
		Comment:       req.Comment,
	}
	reservations := []*model.Reservation{{
		ResourceID:   req.BusID,
		ResourceKind: model.ResourceKindBus,
		StartsAt:     req.Range.Start,
		EndsAt:       req.Range.End,
	}}
	if req.DriverID != "" {
		reservations = append(reservations, &model.Reservation{
			ResourceID:   req.DriverID,
			ResourceKind: model.ResourceKindDriver,
			StartsAt:     req.Range.Start,
			EndsAt:       req.Range.End,
		})
	}

	if err := s.bookings.CreateWithReservations(ctx, booking, reservations); err != nil {
		s.logger.Info("booking rejected", "booking_number", number, "err", err)
		return nil, nil, err
	}

	out := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, *r)
	}
	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"booking_number", number,
		"bus_id", req.BusID,
		"driver_id", req.DriverID,
	)
	return booking, out, nil
}

// CancelBooking cancels a booking and releases its resources.
func (s *SchedulingService) CancelBooking(ctx context.Context, bookingID string, now time.Time) error {
	cancelledAt := now.UTC()
	if err := s.bookings.UpdateStatus(ctx, bookingID, model.ReservationStatusCancelled, &cancelledAt); err != nil {
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	s.logger.Info("booking cancelled", "booking_id", bookingID)
	return nil
}

// DrivingBudget returns the driver's ledger as of asOf and the remaining budget.
func (s *SchedulingService) DrivingBudget(ctx context.Context, driverID string, asOf time.Time) (aggregate.DrivingTimeLedger, error) {
	// Log days are stored as UTC dates. Six days back always reaches the
	// week's Monday; BuildDrivingLedger narrows to the ISO week.
	y, m, d := asOf.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -6)

	logs, err := s.drivingLogs.ListByDriverRange(ctx, driverID, from, to)
	if err != nil {
		return aggregate.DrivingTimeLedger{}, fmt.Errorf("list driving logs for %s: %w", driverID, err)
	}

	ledger := aggregate.BuildDrivingLedger(driverID, asOf, logs)
	s.reportWarnings(ledger.Warnings...)
	return ledger, nil
}

// MaintenanceOverview evaluates HU and SP windows of a bus.
func (s *SchedulingService) MaintenanceOverview(ctx context.Context, busID string, now time.Time) ([]aggregate.MaintenanceState, error) {
	windows, err := s.maintenance.ListByBus(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance windows for %s: %w", busID, err)
	}
	states := aggregate.MaintenanceStatus(busID, windows, now)
	for _, st := range states {
		s.reportWarnings(st.Warnings...)
	}
	return states, nil
}

// TripOccupancy computes occupancy figures and logs inconsistent passenger counts.
func (s *SchedulingService) TripOccupancy(tripID string, currentPassengers, maxPassengers int) aggregate.Occupancy {
	occ := aggregate.TripOccupancy(tripID, currentPassengers, maxPassengers)
	s.reportWarnings(occ.Warnings...)
	return occ
}

// ListReservations pages through the reservations of a resource touching [from, to].
func (s *SchedulingService) ListReservations(
	ctx context.Context,
	resourceID string,
	kind model.ResourceKind,
	window calendar.TimeRange,
	page, pageSize int,
) (calendar.Page[model.Reservation], error) {
	if !window.Valid() {
		return calendar.Page[model.Reservation]{}, &calendar.InvalidIntervalError{
			ResourceID: resourceID,
			Kind:       kind,
			Start:      window.Start,
			End:        window.End,
		}
	}
	items, err := s.reservations.ListByResourceRange(ctx, resourceID, kind, window.Start, window.End)
	if err != nil {
		return calendar.Page[model.Reservation]{}, fmt.Errorf("list reservations: %w", err)
	}
	return calendar.Paginate(items, page, pageSize), nil
}

func (s *SchedulingService) reportWarnings(warnings ...aggregate.DataIntegrityWarning) {
	for _, w := range warnings {
		s.logger.Warn("data integrity warning",
			"code", w.Code,
			"subject", w.Subject,
			"message", w.Message,
		)
	}
}
