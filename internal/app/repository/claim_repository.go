package repository

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type ClaimRepository interface {
	WithTx(tx *gorm.DB) ClaimRepository
	Create(ctx context.Context, claim *model.ClaimRequest) error
	FindByID(ctx context.Context, id uint) (*model.ClaimRequest, error)
	ListPending(ctx context.Context) ([]model.ClaimRequest, error)
	HasPending(ctx context.Context, businessID, userID uint) (bool, error)
	MarkReviewed(ctx context.Context, id uint, adminID *uint) (bool, error)
	MarkRejected(ctx context.Context, id uint, adminID *uint) (bool, error)
	CountPending(ctx context.Context) (int64, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) WithTx(tx *gorm.DB) ClaimRepository {
	return &claimRepository{db: tx}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.ClaimRequest) error {
	logger.Debug("Creating claim request in database", map[string]interface{}{
		"business_id": claim.BusinessID,
		"user_id":     claim.UserID,
	})

	if err := r.db.WithContext(ctx).Omit("Business", "User").Create(claim).Error; err != nil {
		logger.Error("Failed to create claim request", err, map[string]interface{}{
			"business_id": claim.BusinessID,
			"user_id":     claim.UserID,
		})
		return err
	}

	logger.Debug("Claim request created in database", map[string]interface{}{
		"claim_id": claim.ID,
	})
	return nil
}

func (r *claimRepository) FindByID(ctx context.Context, id uint) (*model.ClaimRequest, error) {
	var claim model.ClaimRequest
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("User").
		First(&claim, id).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) ListPending(ctx context.Context) ([]model.ClaimRequest, error) {
	var claims []model.ClaimRequest
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("User").
		Where("reviewed = ? AND rejected = ?", false, false).
		Order("created_at ASC").
		Find(&claims).Error
	if err != nil {
		logger.Error("Failed to list pending claims", err)
		return nil, err
	}
	return claims, nil
}

func (r *claimRepository) HasPending(ctx context.Context, businessID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ClaimRequest{}).
		Where("business_id = ? AND user_id = ? AND reviewed = ? AND rejected = ?", businessID, userID, false, false).
		Count(&count).Error
	return count > 0, err
}

// MarkReviewed flips reviewed with a conditional update. It reports false
// when the claim was already reviewed or rejected, which makes concurrent
// approvals apply at most once.
func (r *claimRepository) MarkReviewed(ctx context.Context, id uint, adminID *uint) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.ClaimRequest{}).
		Where("id = ? AND reviewed = ? AND rejected = ?", id, false, false).
		Updates(map[string]interface{}{
			"reviewed":    true,
			"reviewed_by": adminID,
			"reviewed_at": now,
		})
	if result.Error != nil {
		logger.Error("Failed to mark claim reviewed", result.Error, map[string]interface{}{
			"claim_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkRejected closes an open claim without touching reviewed. Approved or
// already rejected claims report false.
func (r *claimRepository) MarkRejected(ctx context.Context, id uint, adminID *uint) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.ClaimRequest{}).
		Where("id = ? AND reviewed = ? AND rejected = ?", id, false, false).
		Updates(map[string]interface{}{
			"rejected":    true,
			"rejected_by": adminID,
			"rejected_at": now,
		})
	if result.Error != nil {
		logger.Error("Failed to mark claim rejected", result.Error, map[string]interface{}{
			"claim_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *claimRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ClaimRequest{}).
		Where("reviewed = ? AND rejected = ?", false, false).
		Count(&count).Error
	return count, err
}
