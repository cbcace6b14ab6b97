package repository

import (
	"context"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	FindPlan(ctx context.Context, id uint) (*model.SubscriptionPlan, error)
	FindByBusiness(ctx context.Context, businessID uint) (*model.Subscription, error)
	Upsert(ctx context.Context, sub *model.Subscription) error
	DeleteByBusiness(ctx context.Context, businessID uint) (bool, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	if err := r.db.WithContext(ctx).Order("duration_months ASC").Find(&plans).Error; err != nil {
		logger.Error("Failed to list subscription plans", err)
		return nil, err
	}
	return plans, nil
}

func (r *subscriptionRepository) FindPlan(ctx context.Context, id uint) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *subscriptionRepository) FindByBusiness(ctx context.Context, businessID uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.WithContext(ctx).Preload("Plan").Where("business_id = ?", businessID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert overwrites the single subscription row of the business.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.Subscription) error {
	logger.Debug("Upserting subscription", map[string]interface{}{
		"business_id": sub.BusinessID,
		"plan_id":     sub.PlanID,
		"status":      sub.Status,
	})

	err := r.db.WithContext(ctx).
		Omit("Plan").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_id", "status", "subscribed_at", "updated_at"}),
		}).
		Create(sub).Error
	if err != nil {
		logger.Error("Failed to upsert subscription", err, map[string]interface{}{
			"business_id": sub.BusinessID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) DeleteByBusiness(ctx context.Context, businessID uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("business_id = ?", businessID).Delete(&model.Subscription{})
	if result.Error != nil {
		logger.Error("Failed to delete subscription", result.Error, map[string]interface{}{
			"business_id": businessID,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
