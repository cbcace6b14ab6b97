package repository

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type PendingCounts struct {
	BusinessRegistrations int64 `json:"business_registrations"`
	UserRegistrations     int64 `json:"user_registrations"`
	Claims                int64 `json:"claims"`
}

// RegistrationRepository stores business and user intake rows.
type RegistrationRepository interface {
	WithTx(tx *gorm.DB) RegistrationRepository
	CreateBusinessRequest(ctx context.Context, req *model.BusinessRegistrationRequest) error
	CreateUserRequest(ctx context.Context, req *model.UserRegistrationRequest) error
	FindBusinessRequest(ctx context.Context, id uint) (*model.BusinessRegistrationRequest, error)
	FindUserRequest(ctx context.Context, id uint) (*model.UserRegistrationRequest, error)
	ListPendingBusinessRequests(ctx context.Context) ([]model.BusinessRegistrationRequest, error)
	ListPendingUserRequests(ctx context.Context) ([]model.UserRegistrationRequest, error)
	MarkBusinessRequestProcessed(ctx context.Context, id uint) (bool, error)
	MarkUserRequestProcessed(ctx context.Context, id uint) (bool, error)
	CountPending(ctx context.Context) (int64, int64, error)
}

type registrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) WithTx(tx *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: tx}
}

func (r *registrationRepository) CreateBusinessRequest(ctx context.Context, req *model.BusinessRegistrationRequest) error {
	logger.Debug("Creating business registration request", map[string]interface{}{
		"business_name": req.BusinessName,
		"category":      req.Category,
	})

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		logger.Error("Failed to create business registration request", err, map[string]interface{}{
			"business_name": req.BusinessName,
		})
		return err
	}
	return nil
}

func (r *registrationRepository) CreateUserRequest(ctx context.Context, req *model.UserRegistrationRequest) error {
	logger.Debug("Creating user registration request", map[string]interface{}{
		"username": req.Username,
	})

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		logger.Error("Failed to create user registration request", err, map[string]interface{}{
			"username": req.Username,
		})
		return err
	}
	return nil
}

func (r *registrationRepository) FindBusinessRequest(ctx context.Context, id uint) (*model.BusinessRegistrationRequest, error) {
	var req model.BusinessRegistrationRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *registrationRepository) FindUserRequest(ctx context.Context, id uint) (*model.UserRegistrationRequest, error) {
	var req model.UserRegistrationRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *registrationRepository) ListPendingBusinessRequests(ctx context.Context) ([]model.BusinessRegistrationRequest, error) {
	var reqs []model.BusinessRegistrationRequest
	err := r.db.WithContext(ctx).Where("processed = ?", false).Order("created_at ASC").Find(&reqs).Error
	if err != nil {
		logger.Error("Failed to list pending business registrations", err)
		return nil, err
	}
	return reqs, nil
}

func (r *registrationRepository) ListPendingUserRequests(ctx context.Context) ([]model.UserRegistrationRequest, error) {
	var reqs []model.UserRegistrationRequest
	err := r.db.WithContext(ctx).Where("processed = ?", false).Order("created_at ASC").Find(&reqs).Error
	if err != nil {
		logger.Error("Failed to list pending user registrations", err)
		return nil, err
	}
	return reqs, nil
}

func (r *registrationRepository) MarkBusinessRequestProcessed(ctx context.Context, id uint) (bool, error) {
	return r.markProcessed(ctx, &model.BusinessRegistrationRequest{}, id)
}

func (r *registrationRepository) MarkUserRequestProcessed(ctx context.Context, id uint) (bool, error) {
	return r.markProcessed(ctx, &model.UserRegistrationRequest{}, id)
}

// markProcessed reports whether this call performed the transition.
func (r *registrationRepository) markProcessed(ctx context.Context, table interface{}, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(table).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to mark registration processed", result.Error, map[string]interface{}{
			"request_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountPending returns the unprocessed business and user request counts.
func (r *registrationRepository) CountPending(ctx context.Context) (int64, int64, error) {
	var businesses, users int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.BusinessRegistrationRequest{}).Where("processed = ?", false).Count(&businesses).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&model.UserRegistrationRequest{}).Where("processed = ?", false).Count(&users).Error; err != nil {
		return 0, 0, err
	}
	return businesses, users, nil
}
