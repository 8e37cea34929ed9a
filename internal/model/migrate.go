package model

import "gorm.io/gorm"

// AutoMigrate migrates all scheduling entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Booking{},
		&Reservation{},
		&ResourceLock{},
		&BookingSequenceCounter{},
		&MaintenanceWindow{},
		&DrivingLog{},
	)
}
