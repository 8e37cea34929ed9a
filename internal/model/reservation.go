package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceKind is the kind of fleet resource a reservation occupies.
type ResourceKind string

const (
	ResourceKindBus    ResourceKind = "BUS"
	ResourceKindDriver ResourceKind = "DRIVER"
)

func (k ResourceKind) Valid() bool {
	return k == ResourceKindBus || k == ResourceKindDriver
}

// ReservationStatus mirrors the status of the owning booking.
type ReservationStatus string

const (
	ReservationStatusInquiry   ReservationStatus = "INQUIRY"
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusPaid      ReservationStatus = "PAID"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusInquiry,
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusPaid,
		ReservationStatusCompleted,
		ReservationStatusCancelled:
		return true
	default:
		return false
	}
}

// BlocksResource reports whether a reservation in this status takes part
// in conflict checks. Cancelled reservations are kept but no longer block.
func (s ReservationStatus) BlocksResource() bool {
	return s != ReservationStatusCancelled
}

// reservations
type Reservation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;index"`

	ResourceID   string       `gorm:"type:varchar(64);not null;index:idx_reservations_resource,priority:2"`
	ResourceKind ResourceKind `gorm:"type:varchar(16);not null;index:idx_reservations_resource,priority:1"`

	// Both bounds are inclusive.
	StartsAt time.Time `gorm:"not null"`
	EndsAt   time.Time `gorm:"not null"`

	Status ReservationStatus `gorm:"type:varchar(32);not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Reservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
