package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/charter-scheduling/internal/calendar"
	"github.com/Leganyst/charter-scheduling/internal/model"
)

type ReservationRepository interface {
	// All reservations of a resource, any status.
	ListReservationsFor(ctx context.Context, resourceID string, kind model.ResourceKind) ([]model.Reservation, error)
	// Reservations of a resource touching [from, to], ordered by start.
	ListByResourceRange(ctx context.Context, resourceID string, kind model.ResourceKind, from, to time.Time) ([]model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	// Create without any availability check.
	Create(ctx context.Context, reservation *model.Reservation) error
	// CreateIfAvailable checks and inserts inside one transaction.
	CreateIfAvailable(ctx context.Context, reservation *model.Reservation) error
	UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error
}

type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) ListReservationsFor(
	ctx context.Context,
	resourceID string,
	kind model.ResourceKind,
) ([]model.Reservation, error) {
	return listForResource(r.db.WithContext(ctx), resourceID, kind)
}

func listForResource(db *gorm.DB, resourceID string, kind model.ResourceKind) ([]model.Reservation, error) {
	var out []model.Reservation
	err := db.
		Model(&model.Reservation{}).
		Where("resource_kind = ? AND resource_id = ?", kind, resourceID).
		Find(&out).
		Error
	return out, err
}

func (r *GormReservationRepository) ListByResourceRange(
	ctx context.Context,
	resourceID string,
	kind model.ResourceKind,
	from, to time.Time,
) ([]model.Reservation, error) {
	var out []model.Reservation
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("resource_kind = ? AND resource_id = ?", kind, resourceID).
		// inclusive overlap with [from, to]
		Where("starts_at <= ? AND ends_at >= ?", to, from).
		Order("starts_at ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// CreateIfAvailable takes the resource lock, runs the overlap check on the
// resource's reservations and inserts.
// A blocked resource yields *calendar.ConflictError.
func (r *GormReservationRepository) CreateIfAvailable(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createIfAvailable(tx, reservation)
	})
}

// lockResource takes the per-resource row lock for the rest of tx. The row is
// created on first use; a concurrent creator waits on the primary key and then
// on the row lock. SQLite has no row locks and relies on its single connection.
func lockResource(tx *gorm.DB, kind model.ResourceKind, resourceID string) error {
	lock := model.ResourceLock{ResourceKind: kind, ResourceID: resourceID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock).Error; err != nil {
		return fmt.Errorf("create resource lock %s %s: %w", kind, resourceID, err)
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_kind = ? AND resource_id = ?", kind, resourceID).
		First(&lock).
		Error
	if err != nil {
		return fmt.Errorf("lock resource %s %s: %w", kind, resourceID, err)
	}
	return nil
}

// createIfAvailable must run inside a transaction. The resource lock makes the
// read-check-insert sequence exclusive per resource, so two writers cannot both
// pass the check with overlapping intervals.
func createIfAvailable(tx *gorm.DB, reservation *model.Reservation) error {
	if err := lockResource(tx, reservation.ResourceKind, reservation.ResourceID); err != nil {
		return err
	}

	existing, err := listForResource(
		tx.Clauses(clause.Locking{Strength: "UPDATE"}),
		reservation.ResourceID,
		reservation.ResourceKind,
	)
	if err != nil {
		return err
	}

	c := calendar.Candidate{
		ResourceID:           reservation.ResourceID,
		Kind:                 reservation.ResourceKind,
		Range:                calendar.TimeRange{Start: reservation.StartsAt, End: reservation.EndsAt},
		ExcludeReservationID: reservation.ID,
	}
	conflicts, err := calendar.FindConflictingReservations(c, existing)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &calendar.ConflictError{
			ResourceID: c.ResourceID,
			Kind:       c.Kind,
			Range:      c.Range,
			Conflicts:  conflicts,
		}
	}

	return tx.Create(reservation).Error
}

func (r *GormReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}
