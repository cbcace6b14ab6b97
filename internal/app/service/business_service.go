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
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"gorm.io/gorm"
)

type BusinessListOptions struct {
	Search       string
	CategorySlug string
	Page         int
	PageSize     int
}

// BusinessMutation is a partial update; nil fields are left unchanged.
type BusinessMutation struct {
	Name        *string
	ShopNo      *string
	BlockNum    *string
	PhoneNumber *string
	Email       *string
	Description *string
}

// MediaInput replaces either media slot. A slot whose URL is set to "" is cleared.
type MediaInput struct {
	MediaURL   *string
	MediaType  *model.MediaKind
	MediaURL2  *string
	MediaType2 *model.MediaKind
}

type BusinessService interface {
	Get(ctx context.Context, id uint) (*model.Business, error)
	GetBySlug(ctx context.Context, slug string) (*model.Business, error)
	ListPublic(ctx context.Context, opts BusinessListOptions) (*repository.BusinessListResult, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Business, error)
	Update(ctx context.Context, actor model.ActorContext, id uint, input BusinessMutation) (*model.Business, error)
	UpdateMedia(ctx context.Context, actor model.ActorContext, id uint, input MediaInput) (*model.Business, error)
	SetStatus(ctx context.Context, actor model.ActorContext, id uint, status model.BusinessStatus) (*model.Business, error)
	Delete(ctx context.Context, actor model.ActorContext, id uint) error
	AssignOwner(ctx context.Context, actor model.ActorContext, id uint, newOwnerID uint) (*model.Business, error)
	Verify(ctx context.Context, actor model.ActorContext, id uint) (*model.Business, error)
}

type businessService struct {
	db           *gorm.DB
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	activities   activityLog
	txTimeout    time.Duration
}

func NewBusinessService(
	database *gorm.DB,
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	publisher ActivityPublisher,
	txTimeout time.Duration,
) BusinessService {
	return &businessService{
		db:           database,
		businessRepo: businessRepo,
		userRepo:     userRepo,
		activities:   newActivityLog(activityRepo, publisher),
		txTimeout:    txTimeout,
	}
}

// authorize is the single ownership-or-admin gate for every mutation.
func authorize(actor model.ActorContext, business *model.Business) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if actor.Owns(business.OwnerID) {
		return nil
	}
	return ErrForbidden
}

func (s *businessService) Get(ctx context.Context, id uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return business, nil
}

func (s *businessService) GetBySlug(ctx context.Context, slug string) (*model.Business, error) {
	business, err := s.businessRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return business, nil
}

func (s *businessService) ListPublic(ctx context.Context, opts BusinessListOptions) (*repository.BusinessListResult, error) {
	return s.businessRepo.List(ctx, repository.BusinessFilter{
		Search:       strings.TrimSpace(opts.Search),
		CategorySlug: opts.CategorySlug,
		Page:         opts.Page,
		PageSize:     opts.PageSize,
	})
}

func (s *businessService) ListByOwner(ctx context.Context, ownerID uint) ([]model.Business, error) {
	return s.businessRepo.ListByOwner(ctx, ownerID)
}

// mutate loads the business, authorizes the actor, runs apply in a
// transaction, and records an activity row when an admin acted.
func (s *businessService) mutate(
	ctx context.Context,
	actor model.ActorContext,
	id uint,
	action string,
	apply func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error),
) (*model.Business, error) {
	business, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, business); err != nil {
		logger.Warn("Business mutation denied", map[string]interface{}{
			"business_id": id,
			"actor_id":    actor.UserID,
			"actor_role":  actor.Role,
			"action":      action,
		})
		return nil, err
	}

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		details, err := apply(tx, business)
		if err != nil {
			return err
		}
		if actor.IsAdmin() {
			if details == nil {
				details = map[string]interface{}{}
			}
			details["business_id"] = id
			activity, err = s.activities.record(ctx, tx, actor.UserID, action, details)
			return err
		}
		return nil
	})
	if err != nil {
		err = txFailure(err)
		logTxError("Business mutation failed", err, map[string]interface{}{
			"business_id": id,
			"action":      action,
		})
		return nil, err
	}

	s.activities.publish(activity)
	logger.Info("Business updated", map[string]interface{}{
		"business_id": id,
		"action":      action,
		"actor_id":    actor.UserID,
	})
	return business, nil
}

func (s *businessService) reload(ctx context.Context, business *model.Business, err error) (*model.Business, error) {
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, business.ID)
}

func (s *businessService) Update(ctx context.Context, actor model.ActorContext, id uint, input BusinessMutation) (*model.Business, error) {
	fields, err := input.fields()
	if err != nil {
		return nil, err
	}

	business, err := s.mutate(ctx, actor, id, model.ActionUpdateBusiness, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		if len(fields) == 0 {
			return nil, nil
		}
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, business.ID, fields); err != nil {
			return nil, err
		}
		if name, ok := fields["name"].(string); ok {
			if err := reslug(ctx, tx, s.businessRepo, business, name); err != nil {
				return nil, err
			}
		}
		return map[string]interface{}{"fields": len(fields)}, nil
	})
	return s.reload(ctx, business, err)
}

func (m BusinessMutation) fields() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if m.Name != nil {
		name := strings.TrimSpace(*m.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		fields["name"] = name
	}
	if m.PhoneNumber != nil {
		phone := strings.TrimSpace(*m.PhoneNumber)
		if phone != "" && !util.ValidPhone(phone) {
			return nil, validationError("phone number must have at least 10 digits")
		}
		fields["phone_number"] = phone
	}
	if m.Email != nil {
		email := strings.TrimSpace(*m.Email)
		if email != "" && !util.ValidEmail(email) {
			return nil, validationError("email address is invalid")
		}
		fields["email"] = email
	}
	if m.ShopNo != nil {
		fields["shop_no"] = strings.TrimSpace(*m.ShopNo)
	}
	if m.BlockNum != nil {
		fields["block_num"] = strings.TrimSpace(*m.BlockNum)
	}
	if m.Description != nil {
		fields["description"] = strings.TrimSpace(*m.Description)
	}
	return fields, nil
}

// validateMediaInput checks the requested kinds before anything is loaded.
func validateMediaInput(input MediaInput) error {
	for _, kind := range []*model.MediaKind{input.MediaType, input.MediaType2} {
		if kind != nil && *kind != "" && !model.ValidMediaKind(*kind) {
			return ErrInvalidMediaKind
		}
	}
	if input.MediaType != nil && input.MediaType2 != nil && !model.MediaPair(*input.MediaType, *input.MediaType2) {
		return ErrMediaConflict
	}
	return nil
}

// mergeMedia applies input over the current slots and returns the columns to write.
func mergeMedia(business *model.Business, input MediaInput) (map[string]interface{}, error) {
	url1, kind1 := business.MediaURL, business.MediaType
	url2, kind2 := business.MediaURL2, business.MediaType2

	if input.MediaURL != nil {
		url1 = strings.TrimSpace(*input.MediaURL)
	}
	if input.MediaType != nil {
		kind1 = *input.MediaType
	}
	if input.MediaURL2 != nil {
		url2 = strings.TrimSpace(*input.MediaURL2)
	}
	if input.MediaType2 != nil {
		kind2 = *input.MediaType2
	}

	if url1 == "" {
		kind1 = ""
	}
	if url2 == "" {
		kind2 = ""
	}
	if (url1 != "" && kind1 == "") || (url2 != "" && kind2 == "") {
		return nil, validationError("media kind is required for each media URL")
	}
	if !model.MediaPair(kind1, kind2) {
		return nil, ErrMediaConflict
	}

	return map[string]interface{}{
		"media_url":    url1,
		"media_type":   kind1,
		"media_url_2":  url2,
		"media_type_2": kind2,
	}, nil
}

func (s *businessService) UpdateMedia(ctx context.Context, actor model.ActorContext, id uint, input MediaInput) (*model.Business, error) {
	if err := validateMediaInput(input); err != nil {
		logger.Warn("Media update rejected", map[string]interface{}{
			"business_id": id,
			"reason":      err.Error(),
		})
		return nil, err
	}

	business, err := s.mutate(ctx, actor, id, model.ActionUpdateMedia, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		if !business.IsSubscribed && !actor.IsAdmin() {
			return nil, ErrSubscriptionRequired
		}
		fields, err := mergeMedia(business, input)
		if err != nil {
			return nil, err
		}
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, business.ID, fields); err != nil {
			return nil, err
		}
		return map[string]interface{}{"media_type": fields["media_type"], "media_type_2": fields["media_type_2"]}, nil
	})
	return s.reload(ctx, business, err)
}

// SetStatus allows any transition between known statuses.
func (s *businessService) SetStatus(ctx context.Context, actor model.ActorContext, id uint, status model.BusinessStatus) (*model.Business, error) {
	if !model.ValidBusinessStatus(status) {
		return nil, ErrInvalidStatus
	}

	business, err := s.mutate(ctx, actor, id, model.ActionSetStatus, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, business.ID, map[string]interface{}{"status": status}); err != nil {
			return nil, err
		}
		return map[string]interface{}{"from": business.Status, "to": status}, nil
	})
	return s.reload(ctx, business, err)
}

// Delete removes the business and its links, claims and subscription.
func (s *businessService) Delete(ctx context.Context, actor model.ActorContext, id uint) error {
	_, err := s.mutate(ctx, actor, id, model.ActionDeleteBusiness, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		if err := s.businessRepo.WithTx(tx).DeleteCascade(ctx, business.ID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"name": business.Name, "slug": business.Slug}, nil
	})
	return err
}

func (s *businessService) AssignOwner(ctx context.Context, actor model.ActorContext, id uint, newOwnerID uint) (*model.Business, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if _, err := s.userRepo.FindByID(ctx, newOwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	business, err := s.mutate(ctx, actor, id, model.ActionAssignOwner, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, business.ID, map[string]interface{}{"owner_id": newOwnerID}); err != nil {
			return nil, err
		}
		if err := s.userRepo.WithTx(tx).PromoteToOwner(ctx, newOwnerID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"owner_id": newOwnerID, "previous_owner_id": business.OwnerID}, nil
	})
	return s.reload(ctx, business, err)
}

func (s *businessService) Verify(ctx context.Context, actor model.ActorContext, id uint) (*model.Business, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	business, err := s.mutate(ctx, actor, id, model.ActionVerifyBusiness, func(tx *gorm.DB, business *model.Business) (map[string]interface{}, error) {
		err := s.businessRepo.WithTx(tx).UpdateFields(ctx, business.ID, map[string]interface{}{
			"is_verified": true,
			"status":      model.StatusActive,
		})
		return nil, err
	})
	return s.reload(ctx, business, err)
}
