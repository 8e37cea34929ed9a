package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

type DrivingLogRepository interface {
	// Logs of a driver with from <= day <= to (dates only).
	ListByDriverRange(ctx context.Context, driverID string, from, to time.Time) ([]model.DrivingLog, error)
	Create(ctx context.Context, log *model.DrivingLog) error
}

type GormDrivingLogRepository struct {
	db *gorm.DB
}

func NewGormDrivingLogRepository(db *gorm.DB) *GormDrivingLogRepository {
	return &GormDrivingLogRepository{db: db}
}

func (r *GormDrivingLogRepository) ListByDriverRange(
	ctx context.Context,
	driverID string,
	from, to time.Time,
) ([]model.DrivingLog, error) {
	var out []model.DrivingLog
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("day >= ? AND day <= ?", datatypes.Date(from), datatypes.Date(to)).
		Order("day ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormDrivingLogRepository) Create(ctx context.Context, log *model.DrivingLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
