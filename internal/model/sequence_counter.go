package model

import "time"

// booking_sequence_counters: last issued booking sequence per YYMM bucket.
type BookingSequenceCounter struct {
	YearMonthKey string `gorm:"type:varchar(4);primaryKey"`
	LastSequence int64  `gorm:"not null"`

	UpdatedAt time.Time
}
