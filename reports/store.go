package reports

import (
	"context"
	"time"

	"bitbucket.org/gigdash/earnings_backend/models"
	"gorm.io/gorm"
)

// GormStore is the production Store over the activity schema. All queries
// order by id so re-fetches of unchanged data produce byte-identical cache
// values.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) FetchActivities(ctx context.Context, activityType models.ActivityType, start, end time.Time) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	err := g.db.WithContext(ctx).
		Where("type = ? AND start_datetime >= ? AND start_datetime <= ?", activityType, start, end).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (g *GormStore) FetchPayColumns(ctx context.Context, activityType models.ActivityType, start, end time.Time, limit int) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	err := g.db.WithContext(ctx).
		Select("id", "income_fees", "income_pay", "income_tips", "income_bonus").
		Where("type = ? AND start_datetime >= ? AND start_datetime <= ?", activityType, start, end).
		Order("id").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (g *GormStore) FetchMonthlyPayRows(ctx context.Context, limit int) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	err := g.db.WithContext(ctx).
		Select("id", "start_datetime", "income_fees", "income_total", "income_pay", "income_bonus").
		Where("type = ?", models.ActivityTypeRideshare).
		Order("id").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (g *GormStore) FetchDurations(ctx context.Context, activityType models.ActivityType) ([]float64, error) {
	var durations []float64
	err := g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("type = ?", activityType).
		Order("id").
		Pluck("duration", &durations).Error
	if err != nil {
		return nil, err
	}
	return durations, nil
}

func (g *GormStore) FetchUserMetaData(ctx context.Context) ([]models.UserMetaData, error) {
	var rows []models.UserMetaData
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
