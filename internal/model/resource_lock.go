package model

import "time"

// resource_locks
//
// One row per bus or driver that has ever been reserved. Reservation writes
// lock this row first, which serialises them per resource even when the
// resource has no reservations yet to lock.
type ResourceLock struct {
	ResourceKind ResourceKind `gorm:"type:varchar(16);primaryKey"`
	ResourceID   string       `gorm:"type:varchar(64);primaryKey"`

	CreatedAt time.Time
}
