package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

type MaintenanceRepository interface {
	ListByBus(ctx context.Context, busID string) ([]model.MaintenanceWindow, error)
	Create(ctx context.Context, window *model.MaintenanceWindow) error
	MarkCompleted(ctx context.Context, id string) error
}

type GormMaintenanceRepository struct {
	db *gorm.DB
}

func NewGormMaintenanceRepository(db *gorm.DB) *GormMaintenanceRepository {
	return &GormMaintenanceRepository{db: db}
}

func (r *GormMaintenanceRepository) ListByBus(ctx context.Context, busID string) ([]model.MaintenanceWindow, error) {
	var out []model.MaintenanceWindow
	err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("due_date ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormMaintenanceRepository) Create(ctx context.Context, window *model.MaintenanceWindow) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *GormMaintenanceRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.MaintenanceWindow{}).
		Where("id = ?", id).
		Update("completed", true).
		Error
}
