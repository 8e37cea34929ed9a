package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/calendar"
	"github.com/Leganyst/charter-scheduling/internal/db"
	"github.com/Leganyst/charter-scheduling/internal/model"
	"github.com/Leganyst/charter-scheduling/internal/repository"
	"github.com/Leganyst/charter-scheduling/internal/sequence"
)

type fixture struct {
	db          *gorm.DB
	svc         *SchedulingService
	logs        *bytes.Buffer
	bookings    *repository.GormBookingRepository
	reservation *repository.GormReservationRepository
	maintenance *repository.GormMaintenanceRepository
	drivingLogs *repository.GormDrivingLogRepository
}

func newFixture(t *testing.T, store sequence.CounterStore) *fixture {
	t.Helper()
	gdb, err := db.NewSQLiteDB(":memory:")
	require.NoError(t, err, "open sqlite")
	require.NoError(t, model.AutoMigrate(gdb), "migrate")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if store == nil {
		store = sequence.NewMemoryCounterStore()
	}

	f := &fixture{
		db:          gdb,
		logs:        &bytes.Buffer{},
		bookings:    repository.NewGormBookingRepository(gdb),
		reservation: repository.NewGormReservationRepository(gdb),
		maintenance: repository.NewGormMaintenanceRepository(gdb),
		drivingLogs: repository.NewGormDrivingLogRepository(gdb),
	}
	logger := slog.New(slog.NewJSONHandler(f.logs, nil))
	f.svc = NewSchedulingService(
		f.bookings,
		f.reservation,
		f.maintenance,
		f.drivingLogs,
		sequence.NewAllocator(store, sequence.DefaultPrefix),
		logger,
		time.UTC,
	)
	return f
}

func june(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) reserve(t *testing.T, resourceID string, start, end time.Time, status model.ReservationStatus) model.Reservation {
	t.Helper()
	r := model.Reservation{
		ResourceID:   resourceID,
		ResourceKind: model.ResourceKindBus,
		StartsAt:     start,
		EndsAt:       end,
		Status:       status,
	}
	require.NoError(t, f.reservation.Create(context.Background(), &r))
	return r
}

func busCandidate(id string, start, end time.Time) calendar.Candidate {
	return calendar.Candidate{
		ResourceID: id,
		Kind:       model.ResourceKindBus,
		Range:      calendar.TimeRange{Start: start, End: end},
	}
}

func TestSchedulingService_CheckAvailability(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := f.reserve(t, "B1", june(1), june(3), model.ReservationStatusConfirmed)
	f.reserve(t, "B1", june(10), june(12), model.ReservationStatusConfirmed)

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		available bool
	}{
		{name: "touching first reservation", start: june(3), end: june(5), available: false},
		{name: "gap between reservations", start: june(4), end: june(9), available: true},
		{name: "touching second reservation", start: june(9), end: june(10), available: false},
		{name: "after both", start: june(13), end: june(14), available: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.CheckAvailability(ctx, busCandidate("B1", tt.start, tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.available, res.Available)
			if tt.available {
				assert.Empty(t, res.Conflicts)
				assert.Empty(t, res.Message)
			} else {
				assert.NotEmpty(t, res.Conflicts)
				assert.Contains(t, res.Message, "Bus B1")
			}
		})
	}

	res, err := f.svc.CheckAvailability(ctx, busCandidate("B1", june(3), june(5)))
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, first.ID, res.Conflicts[0].ID)
}

func TestSchedulingService_CheckAvailability_InvalidInterval(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CheckAvailability(context.Background(), busCandidate("B1", june(5), june(3)))
	assert.ErrorIs(t, err, calendar.ErrInvalidInterval)
}

func TestSchedulingService_Reserve(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	r := &model.Reservation{
		ResourceID:   "B1",
		ResourceKind: model.ResourceKindBus,
		StartsAt:     june(1),
		EndsAt:       june(3),
		Status:       model.ReservationStatusPending,
	}
	require.NoError(t, f.svc.Reserve(ctx, r))
	assert.Contains(t, f.logs.String(), "reservation created")

	clash := &model.Reservation{
		ResourceID:   "B1",
		ResourceKind: model.ResourceKindBus,
		StartsAt:     june(3),
		EndsAt:       june(4),
		Status:       model.ReservationStatusInquiry,
	}
	err := f.svc.Reserve(ctx, clash)
	var conflict *calendar.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "B1", conflict.ResourceID)

	bad := &model.Reservation{ResourceID: "B1", ResourceKind: "TRAIN", StartsAt: june(20), EndsAt: june(21), Status: model.ReservationStatusPending}
	assert.Error(t, f.svc.Reserve(ctx, bad))
}

func TestSchedulingService_AllocateBookingNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	now := time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

	first, err := f.svc.AllocateBookingNumber(ctx, now)
	require.NoError(t, err)
	second, err := f.svc.AllocateBookingNumber(ctx, now)
	require.NoError(t, err)
	july, err := f.svc.AllocateBookingNumberFor(ctx, "2507")
	require.NoError(t, err)

	assert.Equal(t, "ER-2506-0001", first)
	assert.Equal(t, "ER-2506-0002", second)
	assert.Equal(t, "ER-2507-0001", july)

	_, err = f.svc.AllocateBookingNumberFor(ctx, "2513")
	assert.ErrorIs(t, err, sequence.ErrInvalidYearMonthKey)
}

type brokenStore struct{}

func (brokenStore) GetAndIncrement(context.Context, string) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestSchedulingService_AllocateBookingNumber_StoreFailure(t *testing.T) {
	f := newFixture(t, brokenStore{})

	_, err := f.svc.AllocateBookingNumberFor(context.Background(), "2506")
	assert.ErrorIs(t, err, sequence.ErrCounterPersistence)
	assert.Contains(t, f.logs.String(), "booking number allocation failed")
}

func TestSchedulingService_DrivingBudget(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 2025-06-01 is a Sunday, so the ISO week of June 4 starts on June 2.
	for _, l := range []model.DrivingLog{
		{DriverID: "D1", Day: datatypes.Date(june(1)), Minutes: 100},
		{DriverID: "D1", Day: datatypes.Date(june(2)), Minutes: 200},
		{DriverID: "D1", Day: datatypes.Date(june(3)), Minutes: -50},
		{DriverID: "D1", Day: datatypes.Date(june(4)), Minutes: 300},
		{DriverID: "D2", Day: datatypes.Date(june(4)), Minutes: 500},
	} {
		require.NoError(t, f.drivingLogs.Create(ctx, &l))
	}

	ledger, err := f.svc.DrivingBudget(ctx, "D1", june(4).Add(14*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 300, ledger.ConsumedMinutesDriving)
	assert.Equal(t, 500, ledger.ConsumedMinutesWeek)
	rem := ledger.Remaining()
	assert.Equal(t, 240, rem.Daily)
	assert.Equal(t, 2860, rem.Weekly)
	assert.Equal(t, 240, rem.Effective())

	require.Len(t, ledger.Warnings, 1)
	assert.Contains(t, f.logs.String(), "data integrity warning")
}

func TestSchedulingService_MaintenanceOverview(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, w := range []*model.MaintenanceWindow{
		{BusID: "B1", Type: model.MaintenanceTypeHU, DueDate: datatypes.Date(june(25))},
		{BusID: "B1", Type: model.MaintenanceTypeSP, DueDate: datatypes.Date(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))},
		{BusID: "B2", Type: model.MaintenanceTypeSP, DueDate: datatypes.Date(june(2))},
	} {
		require.NoError(t, f.maintenance.Create(ctx, w))
	}

	states, err := f.svc.MaintenanceOverview(ctx, "B1", june(1))
	require.NoError(t, err)
	require.Len(t, states, 2)

	hu, sp := states[0], states[1]
	assert.Equal(t, model.MaintenanceTypeHU, hu.Type)
	require.NotNil(t, hu.Window)
	assert.Equal(t, 24, hu.DaysUntilDue)
	assert.True(t, hu.DueSoon)
	assert.False(t, hu.Overdue)

	assert.Equal(t, model.MaintenanceTypeSP, sp.Type)
	require.NotNil(t, sp.Window)
	assert.Equal(t, 30, sp.DaysUntilDue)
	assert.False(t, sp.DueSoon)
}

func TestSchedulingService_TripOccupancy(t *testing.T) {
	f := newFixture(t, nil)

	occ := f.svc.TripOccupancy("T1", 30, 50)
	assert.InDelta(t, 60.0, occ.Rate, 1e-9)
	assert.Equal(t, 20, occ.AvailableSeats)
	assert.Empty(t, occ.Warnings)
	assert.NotContains(t, f.logs.String(), "data integrity warning")

	over := f.svc.TripOccupancy("T2", 55, 50)
	assert.Equal(t, 0, over.AvailableSeats)
	require.NotEmpty(t, over.Warnings)
	assert.Contains(t, f.logs.String(), "T2")
}

func TestSchedulingService_ListReservations(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for d := 1; d <= 25; d += 2 {
		f.reserve(t, "B1", june(d), june(d).Add(6*time.Hour), model.ReservationStatusConfirmed)
	}
	f.reserve(t, "B2", june(2), june(3), model.ReservationStatusConfirmed)

	window := calendar.TimeRange{Start: june(1), End: june(30)}
	page, err := f.svc.ListReservations(ctx, "B1", model.ResourceKindBus, window, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 13, page.Total)
	assert.Len(t, page.Items, 5)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Equal(t, june(11), page.Items[0].StartsAt.UTC())

	_, err = f.svc.ListReservations(ctx, "B1", model.ResourceKindBus, calendar.TimeRange{Start: june(5), End: june(1)}, 1, 5)
	assert.ErrorIs(t, err, calendar.ErrInvalidInterval)
}

func TestSchedulingService_CreateBooking(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	now := time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC)

	booking, reservations, err := f.svc.CreateBooking(ctx, BookingRequest{
		BusID:    "B1",
		DriverID: "D1",
		Range:    calendar.TimeRange{Start: june(1), End: june(3)},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "ER-2505-0001", booking.BookingNumber)
	assert.Equal(t, model.ReservationStatusPending, booking.Status)
	require.Len(t, reservations, 2)
	for _, r := range reservations {
		assert.Equal(t, booking.ID, r.BookingID)
		assert.Equal(t, model.ReservationStatusPending, r.Status)
	}

	// Driver is free but the bus is not; nothing of the second booking persists.
	_, _, err = f.svc.CreateBooking(ctx, BookingRequest{
		BusID:    "B1",
		DriverID: "D2",
		Range:    calendar.TimeRange{Start: june(3), End: june(4)},
	}, now)
	var conflict *calendar.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.ResourceKindBus, conflict.Kind)

	d2, err := f.reservation.ListReservationsFor(ctx, "D2", model.ResourceKindDriver)
	require.NoError(t, err)
	assert.Empty(t, d2)
	_, err = f.bookings.GetByNumber(ctx, "ER-2505-0002")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The rejected booking consumed number 0002.
	next, _, err := f.svc.CreateBooking(ctx, BookingRequest{
		BusID: "B2",
		Range: calendar.TimeRange{Start: june(3), End: june(4)},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "ER-2505-0003", next.BookingNumber)
}

func TestSchedulingService_CreateBooking_Rejected(t *testing.T) {
	f := newFixture(t, brokenStore{})
	ctx := context.Background()
	now := june(1)

	_, _, err := f.svc.CreateBooking(ctx, BookingRequest{BusID: "B1", Range: calendar.TimeRange{Start: june(5), End: june(3)}}, now)
	assert.ErrorIs(t, err, calendar.ErrInvalidInterval)

	_, _, err = f.svc.CreateBooking(ctx, BookingRequest{
		BusID:  "B1",
		Range:  calendar.TimeRange{Start: june(3), End: june(5)},
		Status: model.ReservationStatusCancelled,
	}, now)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = f.svc.CreateBooking(ctx, BookingRequest{BusID: "B1", Range: calendar.TimeRange{Start: june(3), End: june(5)}}, now)
	assert.ErrorIs(t, err, sequence.ErrCounterPersistence)

	got, err := f.reservation.ListReservationsFor(ctx, "B1", model.ResourceKindBus)
	require.NoError(t, err)
	assert.Empty(t, got, "aborted bookings reserve nothing")
}

func TestSchedulingService_CancelBookingReleasesResources(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	req := BookingRequest{
		BusID:    "B1",
		DriverID: "D1",
		Range:    calendar.TimeRange{Start: june(1), End: june(3)},
		Status:   model.ReservationStatusConfirmed,
	}

	booking, _, err := f.svc.CreateBooking(ctx, req, june(1))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelBooking(ctx, booking.ID.String(), june(2)))

	stored, err := f.bookings.GetByID(ctx, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)

	res, err := f.bookings.ListReservations(ctx, booking.ID.String())
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, model.ReservationStatusCancelled, r.Status)
	}

	_, _, err = f.svc.CreateBooking(ctx, req, june(2))
	assert.NoError(t, err, "cancelled booking no longer blocks bus or driver")

	err = f.svc.CancelBooking(ctx, "00000000-0000-0000-0000-000000000001", june(2))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSchedulingService_ListReservations_PageBeyondRange(t *testing.T) {
	f := newFixture(t, nil)
	f.reserve(t, "B1", june(1), june(2), model.ReservationStatusConfirmed)

	window := calendar.TimeRange{Start: june(1), End: june(30)}
	page, err := f.svc.ListReservations(context.Background(), "B1", model.ResourceKindBus, window, math.MaxInt, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasNext)
}

func TestSchedulingService_MaintenanceOverview_DueBeforeIssue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	issued := datatypes.Date(june(20))
	w := &model.MaintenanceWindow{
		BusID:    "B1",
		Type:     model.MaintenanceTypeSP,
		DueDate:  datatypes.Date(june(10)),
		IssuedOn: &issued,
	}
	require.NoError(t, f.maintenance.Create(ctx, w))

	states, err := f.svc.MaintenanceOverview(ctx, "B1", june(1))
	require.NoError(t, err)
	require.Len(t, states, 2)

	sp := states[1]
	require.Len(t, sp.Warnings, 1)
	assert.Equal(t, w.ID.String(), sp.Warnings[0].Subject)
	assert.True(t, sp.DueSoon)
	assert.Contains(t, f.logs.String(), "due_before_issue")
}
