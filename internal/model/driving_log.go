package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// driving_logs: driving minutes recorded for a driver on a calendar day.
type DrivingLog struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DriverID string         `gorm:"type:varchar(64);not null;index:idx_driving_logs_driver_day,priority:1"`
	Day      datatypes.Date `gorm:"type:date;not null;index:idx_driving_logs_driver_day,priority:2"`
	Minutes  int            `gorm:"not null"`

	CreatedAt time.Time
}

func (l *DrivingLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
