package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaintenanceType is a German periodic inspection regime.
type MaintenanceType string

const (
	// HU: Hauptuntersuchung (main inspection).
	MaintenanceTypeHU MaintenanceType = "HU"
	// SP: Sicherheitsprüfung (safety inspection).
	MaintenanceTypeSP MaintenanceType = "SP"
)

func (t MaintenanceType) Valid() bool {
	return t == MaintenanceTypeHU || t == MaintenanceTypeSP
}

// maintenance_windows
type MaintenanceWindow struct {
	ID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BusID string          `gorm:"type:varchar(64);not null;index:idx_maintenance_bus_type,priority:1"`
	Type  MaintenanceType `gorm:"type:varchar(8);not null;index:idx_maintenance_bus_type,priority:2"`

	// Date only, no time of day.
	DueDate datatypes.Date `gorm:"type:date;not null"`
	// Inspection report that set the due date, if recorded.
	IssuedOn  *datatypes.Date `gorm:"type:date"`
	Completed bool            `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *MaintenanceWindow) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Due returns the due date as a time.Time at midnight UTC.
func (m MaintenanceWindow) Due() time.Time {
	return time.Time(m.DueDate)
}
