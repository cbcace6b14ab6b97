package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type DashboardStats struct {
	Businesses repository.BusinessStats `json:"businesses"`
	Pending    repository.PendingCounts `json:"pending"`
}

// UserUpdate changes a user's role or suspension; nil fields are left unchanged.
type UserUpdate struct {
	Role      *model.UserRole
	Suspended *bool
}

type UserListResult struct {
	Users    []model.User `json:"users"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type AdminService interface {
	DashboardStats(ctx context.Context, actor model.ActorContext) (*DashboardStats, error)
	ListUsers(ctx context.Context, actor model.ActorContext, filter repository.UserFilter) (*UserListResult, error)
	ListBusinesses(ctx context.Context, actor model.ActorContext, status model.BusinessStatus, opts BusinessListOptions) (*repository.BusinessListResult, error)
	UpdateUser(ctx context.Context, actor model.ActorContext, id uint, input UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, actor model.ActorContext, id uint) error
}

type adminService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	intake       IntakeService
	activities   activityLog
	txTimeout    time.Duration
}

func NewAdminService(
	database *gorm.DB,
	userRepo repository.UserRepository,
	businessRepo repository.BusinessRepository,
	intake IntakeService,
	activityRepo repository.ActivityRepository,
	publisher ActivityPublisher,
	txTimeout time.Duration,
) AdminService {
	return &adminService{
		db:           database,
		userRepo:     userRepo,
		businessRepo: businessRepo,
		intake:       intake,
		activities:   newActivityLog(activityRepo, publisher),
		txTimeout:    txTimeout,
	}
}

func (s *adminService) DashboardStats(ctx context.Context, actor model.ActorContext) (*DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	businesses, err := s.businessRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.intake.PendingCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{Businesses: *businesses, Pending: *pending}, nil
}

// ListBusinesses is the moderation view: unlike the public listing it can
// narrow to one status, deleted included. No status means every status but
// deleted.
func (s *adminService) ListBusinesses(ctx context.Context, actor model.ActorContext, status model.BusinessStatus, opts BusinessListOptions) (*repository.BusinessListResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	filter := repository.BusinessFilter{
		Search:       strings.TrimSpace(opts.Search),
		CategorySlug: opts.CategorySlug,
		Page:         opts.Page,
		PageSize:     opts.PageSize,
	}
	if status != "" {
		if !model.ValidBusinessStatus(status) {
			return nil, ErrInvalidStatus
		}
		filter.Statuses = []model.BusinessStatus{status}
	}
	return s.businessRepo.List(ctx, filter)
}

func (s *adminService) ListUsers(ctx context.Context, actor model.ActorContext, filter repository.UserFilter) (*UserListResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if filter.Role != "" && !model.ValidRole(filter.Role) {
		return nil, ErrInvalidRole
	}

	filter.Page, filter.PageSize = repository.NormalizePage(filter.Page, filter.PageSize)
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &UserListResult{Users: users, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *adminService) loadUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, actor model.ActorContext, id uint, input UserUpdate) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	fields := map[string]interface{}{}
	if input.Role != nil {
		if !model.ValidRole(*input.Role) {
			return nil, ErrInvalidRole
		}
		fields["role"] = *input.Role
	}
	if input.Suspended != nil {
		fields["suspended"] = *input.Suspended
	}

	if _, err := s.loadUser(ctx, id); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.loadUser(ctx, id)
	}

	var activity *model.AdminActivity
	err := db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		details := map[string]interface{}{"user_id": id}
		for k, v := range fields {
			details[k] = v
		}
		var err error
		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionUpdateUser, details)
		return err
	})
	if err != nil {
		return nil, txFailure(err)
	}
	s.activities.publish(activity)

	logger.Info("User updated by admin", map[string]interface{}{
		"user_id":  id,
		"admin_id": actor.UserID,
	})
	return s.loadUser(ctx, id)
}

// DeleteUser refuses while the user still owns a listing or has claims on
// record.
func (s *adminService) DeleteUser(ctx context.Context, actor model.ActorContext, id uint) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		owned, err := users.CountOwnedBusinesses(ctx, id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ErrUserOwnsBusiness
		}
		claims, err := users.CountClaims(ctx, id)
		if err != nil {
			return err
		}
		if claims > 0 {
			return ErrUserHasClaims
		}
		if err := users.Delete(ctx, id); err != nil {
			return err
		}
		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionDeleteUser, map[string]interface{}{
			"user_id":  id,
			"username": user.Username,
		})
		return err
	})
	if err != nil {
		return txFailure(err)
	}
	s.activities.publish(activity)

	logger.Info("User deleted by admin", map[string]interface{}{
		"user_id":  id,
		"admin_id": actor.UserID,
	})
	return nil
}
