package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bookings
//
// A charter booking. Its reservations (bus, optionally driver) carry the
// same status, so cancelling the booking releases the resources.
type Booking struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	BookingNumber string            `gorm:"type:varchar(32);not null;uniqueIndex"`
	Status        ReservationStatus `gorm:"type:varchar(32);not null;index"`

	StartsAt time.Time `gorm:"not null"`
	EndsAt   time.Time `gorm:"not null"`

	CancelledAt *time.Time
	Comment     string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
