package repository

import (
	"context"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	WithTx(tx *gorm.DB) ActivityRepository
	Create(ctx context.Context, activity *model.AdminActivity) error
	ListRecent(ctx context.Context, limit int) ([]model.AdminActivity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) WithTx(tx *gorm.DB) ActivityRepository {
	return &activityRepository{db: tx}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.AdminActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		logger.Error("Failed to record admin activity", err, map[string]interface{}{
			"admin_id": activity.AdminID,
			"action":   activity.Action,
		})
		return err
	}
	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]model.AdminActivity, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = 50
	}
	var activities []model.AdminActivity
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error; err != nil {
		logger.Error("Failed to list admin activities", err)
		return nil, err
	}
	return activities, nil
}
