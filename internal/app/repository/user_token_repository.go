package repository

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserTokenRepository interface {
	Create(ctx context.Context, token *model.UserToken) error
	FindValid(ctx context.Context, token string, purpose model.TokenPurpose) (*model.UserToken, error)
	MarkUsed(ctx context.Context, id uint) (bool, error)
	InvalidateForUser(ctx context.Context, userID uint, purpose model.TokenPurpose) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type userTokenRepository struct {
	db *gorm.DB
}

func NewUserTokenRepository(db *gorm.DB) UserTokenRepository {
	return &userTokenRepository{db: db}
}

func (r *userTokenRepository) Create(ctx context.Context, token *model.UserToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		logger.Error("Failed to create user token", err, map[string]interface{}{
			"user_id": token.UserID,
			"purpose": token.Purpose,
		})
		return err
	}
	return nil
}

// FindValid returns an unused, unexpired token of the given purpose.
func (r *userTokenRepository) FindValid(ctx context.Context, token string, purpose model.TokenPurpose) (*model.UserToken, error) {
	var t model.UserToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND purpose = ? AND used = ? AND expires_at > ?", token, purpose, false, time.Now()).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed flips used once; false means another request consumed it first.
func (r *userTokenRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.UserToken{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		logger.Error("Failed to mark user token used", result.Error, map[string]interface{}{
			"token_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *userTokenRepository) InvalidateForUser(ctx context.Context, userID uint, purpose model.TokenPurpose) error {
	return r.db.WithContext(ctx).Model(&model.UserToken{}).
		Where("user_id = ? AND purpose = ? AND used = ?", userID, purpose, false).
		Update("used", true).Error
}

func (r *userTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used = ?", before, true).
		Delete(&model.UserToken{})
	if result.Error != nil {
		logger.Error("Failed to purge expired user tokens", result.Error)
		return 0, result.Error
	}
	logger.Debug("Expired user tokens purged", map[string]interface{}{
		"deleted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
