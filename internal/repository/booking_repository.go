package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

type BookingRepository interface {
	// CreateWithReservations inserts the booking and its reservations in one
	// transaction. Any blocked resource rolls back the whole booking.
	CreateWithReservations(ctx context.Context, booking *model.Booking, reservations []*model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByNumber(ctx context.Context, bookingNumber string) (*model.Booking, error)
	// UpdateStatus sets the status of the booking and of all its reservations.
	UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, cancelledAt *time.Time) error
	ListReservations(ctx context.Context, bookingID string) ([]model.Reservation, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) CreateWithReservations(
	ctx context.Context,
	booking *model.Booking,
	reservations []*model.Reservation,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		for _, res := range reservations {
			res.BookingID = booking.ID
			res.Status = booking.Status
			if err := createIfAvailable(tx, res); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) GetByNumber(ctx context.Context, bookingNumber string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "booking_number = ?", bookingNumber).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status model.ReservationStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).Where("id = ?", id).Updates(update)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.Reservation{}).
			Where("booking_id = ?", id).
			Update("status", status).
			Error
	})
}

func (r *GormBookingRepository) ListReservations(ctx context.Context, bookingID string) ([]model.Reservation, error) {
	var out []model.Reservation
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("resource_kind ASC").
		Find(&out).
		Error
	return out, err
}
