package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

// GormCounterRepository implements sequence.CounterStore on the
// booking_sequence_counters table.
type GormCounterRepository struct {
	db *gorm.DB
}

func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// GetAndIncrement upserts the month row and bumps last_sequence in a single
// statement, then reads the value back in the same transaction. The row lock
// taken by the upsert keeps concurrent callers from seeing the same value.
func (r *GormCounterRepository) GetAndIncrement(ctx context.Context, yearMonthKey string) (int64, error) {
	var counter model.BookingSequenceCounter

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "year_month_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_sequence": gorm.Expr("booking_sequence_counters.last_sequence + 1"),
				"updated_at":    tx.NowFunc(),
			}),
		}).Create(&model.BookingSequenceCounter{
			YearMonthKey: yearMonthKey,
			LastSequence: 1,
		}).Error
		if err != nil {
			return err
		}

		return tx.First(&counter, "year_month_key = ?", yearMonthKey).Error
	})
	if err != nil {
		return 0, err
	}
	return counter.LastSequence, nil
}

// Current returns the last issued sequence for a key, 0 if none was issued.
func (r *GormCounterRepository) Current(ctx context.Context, yearMonthKey string) (int64, error) {
	var counter model.BookingSequenceCounter
	err := r.db.WithContext(ctx).
		Where("year_month_key = ?", yearMonthKey).
		Limit(1).
		Find(&counter).
		Error
	return counter.LastSequence, err
}
