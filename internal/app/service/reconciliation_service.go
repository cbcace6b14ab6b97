package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/metrics"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	"gorm.io/gorm"
)

type ApprovalResult struct {
	Business        *model.Business `json:"business"`
	AlreadyReviewed bool            `json:"already_reviewed"`
}

// RegistrationOverrides lets the reviewing admin correct a submission
// before it becomes a listing. Empty fields keep the submitted value.
type RegistrationOverrides struct {
	BusinessName string
	Category     string
	Status       model.BusinessStatus
}

// ReconciliationService applies approved claims and registrations across
// businesses, categories, users and their links in one transaction.
type ReconciliationService interface {
	ApproveClaim(ctx context.Context, actor model.ActorContext, claimID uint) (*ApprovalResult, error)
	ProcessBusinessRegistration(ctx context.Context, actor model.ActorContext, requestID uint, overrides RegistrationOverrides) (*model.Business, error)
	ProcessUserRegistration(ctx context.Context, actor model.ActorContext, requestID uint) (*model.User, error)
}

type reconciliationService struct {
	db               *gorm.DB
	categories       CategoryService
	businessRepo     repository.BusinessRepository
	claimRepo        repository.ClaimRepository
	registrationRepo repository.RegistrationRepository
	userRepo         repository.UserRepository
	activities       activityLog
	notifier         notify.Notifier
	timeout          time.Duration
}

func NewReconciliationService(
	database *gorm.DB,
	categories CategoryService,
	businessRepo repository.BusinessRepository,
	claimRepo repository.ClaimRepository,
	registrationRepo repository.RegistrationRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	publisher ActivityPublisher,
	notifier notify.Notifier,
	timeout time.Duration,
) ReconciliationService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &reconciliationService{
		db:               database,
		categories:       categories,
		businessRepo:     businessRepo,
		claimRepo:        claimRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		activities:       newActivityLog(activityRepo, publisher),
		notifier:         notifier,
		timeout:          timeout,
	}
}

// errAlreadyReviewed rolls back a transaction that lost the review race.
var errAlreadyReviewed = errors.New("claim already reviewed")

func (s *reconciliationService) ApproveClaim(ctx context.Context, actor model.ActorContext, claimID uint) (*ApprovalResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	if claim.Rejected {
		return nil, ErrClaimRejected
	}
	if claim.Reviewed {
		return s.alreadyReviewed(ctx, claim)
	}

	logger.Info("Approving claim", map[string]interface{}{
		"claim_id":    claim.ID,
		"business_id": claim.BusinessID,
		"claimant_id": claim.UserID,
		"admin_id":    actor.UserID,
	})

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.timeout, func(tx *gorm.DB) error {
		adminID := actor.UserID
		changed, err := s.claimRepo.WithTx(tx).MarkReviewed(ctx, claim.ID, &adminID)
		if err != nil {
			return err
		}
		if !changed {
			return errAlreadyReviewed
		}

		category, err := s.categories.ResolveOrCreateTx(ctx, tx, claim.Category)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{
			"owner_id": claim.UserID,
			"category": category.Name,
		}
		if claim.PhoneNumber != "" {
			fields["phone_number"] = claim.PhoneNumber
		}
		if claim.Email != "" {
			fields["email"] = claim.Email
		}
		if claim.Description != "" {
			fields["description"] = claim.Description
		}
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, claim.BusinessID, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBusinessNotFound
			}
			return err
		}

		if err := s.userRepo.WithTx(tx).PromoteToOwner(ctx, claim.UserID); err != nil {
			return err
		}

		if err := s.businessRepo.WithTx(tx).LinkCategory(ctx, claim.BusinessID, category.ID); err != nil {
			return err
		}

		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionApproveClaim, map[string]interface{}{
			"claim_id":    claim.ID,
			"business_id": claim.BusinessID,
			"user_id":     claim.UserID,
			"category":    category.Name,
		})
		return err
	})
	if errors.Is(err, errAlreadyReviewed) {
		// Lost to a concurrent approval or rejection.
		current, findErr := s.claimRepo.FindByID(ctx, claim.ID)
		if findErr != nil {
			return nil, findErr
		}
		if current.Rejected {
			return nil, ErrClaimRejected
		}
		return s.alreadyReviewed(ctx, current)
	}
	if err != nil {
		metrics.ClaimReconciliations.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error("Claim approval rolled back", err, map[string]interface{}{
			"claim_id": claim.ID,
		})
		return nil, txFailure(err)
	}

	metrics.ClaimReconciliations.WithLabelValues(metrics.OutcomeApplied).Inc()
	s.categories.InvalidateCache(ctx)
	s.activities.publish(activity)

	business, err := s.businessRepo.FindByID(ctx, claim.BusinessID)
	if err != nil {
		return nil, err
	}

	if claim.User != nil {
		recipient := claim.User.Email
		if claim.Email != "" {
			recipient = claim.Email
		}
		s.notify(ctx, notify.EventClaimApproved, recipient, map[string]string{
			"business_name": business.Name,
			"business_slug": business.Slug,
		})
	}

	logger.Info("Claim approved", map[string]interface{}{
		"claim_id":    claim.ID,
		"business_id": business.ID,
		"owner_id":    claim.UserID,
	})
	return &ApprovalResult{Business: business}, nil
}

func (s *reconciliationService) alreadyReviewed(ctx context.Context, claim *model.ClaimRequest) (*ApprovalResult, error) {
	metrics.ClaimReconciliations.WithLabelValues(metrics.OutcomeAlreadyReviewed).Inc()
	logger.Info("Claim already reviewed, nothing to apply", map[string]interface{}{
		"claim_id": claim.ID,
	})

	business, err := s.businessRepo.FindByID(ctx, claim.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ApprovalResult{AlreadyReviewed: true}, nil
		}
		return nil, err
	}
	return &ApprovalResult{Business: business, AlreadyReviewed: true}, nil
}

// ProcessBusinessRegistration turns a pending registration into a listing
// owned by the submitter. Processing the same request twice is a Conflict.
func (s *reconciliationService) ProcessBusinessRegistration(ctx context.Context, actor model.ActorContext, requestID uint, overrides RegistrationOverrides) (*model.Business, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if overrides.Status != "" && !model.ValidBusinessStatus(overrides.Status) {
		return nil, ErrInvalidStatus
	}

	req, err := s.registrationRepo.FindBusinessRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Processed {
		return nil, ErrRequestAlreadyProcessed
	}

	name := req.BusinessName
	if v := strings.TrimSpace(overrides.BusinessName); v != "" {
		name = v
	}
	categoryName := req.Category
	if v := model.NormalizeCategoryName(overrides.Category); v != "" {
		categoryName = v
	}
	status := model.StatusPending
	if overrides.Status != "" {
		status = overrides.Status
	}

	business := &model.Business{
		OwnerID:     req.UserID,
		Name:        name,
		ShopNo:      req.ShopNo,
		BlockNum:    req.BlockNum,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Description: req.Description,
		Status:      status,
	}

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.timeout, func(tx *gorm.DB) error {
		changed, err := s.registrationRepo.WithTx(tx).MarkBusinessRequestProcessed(ctx, req.ID)
		if err != nil {
			return err
		}
		if !changed {
			return ErrRequestAlreadyProcessed
		}

		category, err := s.categories.ResolveOrCreateTx(ctx, tx, categoryName)
		if err != nil {
			return err
		}
		business.Category = category.Name

		if err := CreateBusinessWithUniqueSlug(ctx, tx, s.businessRepo, business); err != nil {
			return err
		}
		if err := s.businessRepo.WithTx(tx).LinkCategory(ctx, business.ID, category.ID); err != nil {
			return err
		}
		if req.UserID != nil {
			if err := s.userRepo.WithTx(tx).PromoteToOwner(ctx, *req.UserID); err != nil {
				return err
			}
		}

		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionProcessRegistration, map[string]interface{}{
			"request_id":  req.ID,
			"business_id": business.ID,
			"slug":        business.Slug,
			"category":    category.Name,
		})
		return err
	})
	if err != nil {
		logger.Error("Business registration processing rolled back", err, map[string]interface{}{
			"request_id": req.ID,
		})
		return nil, txFailure(err)
	}

	s.categories.InvalidateCache(ctx)
	s.activities.publish(activity)

	created, err := s.businessRepo.FindByID(ctx, business.ID)
	if err != nil {
		return nil, err
	}

	if recipient := s.registrationRecipient(ctx, req); recipient != "" {
		s.notify(ctx, notify.EventRegistrationApproved, recipient, map[string]string{
			"business_name": created.Name,
			"business_slug": created.Slug,
		})
	}

	logger.Info("Business registration processed", map[string]interface{}{
		"request_id":  req.ID,
		"business_id": created.ID,
		"slug":        created.Slug,
	})
	return created, nil
}

func (s *reconciliationService) registrationRecipient(ctx context.Context, req *model.BusinessRegistrationRequest) string {
	if req.Email != "" {
		return req.Email
	}
	if req.UserID == nil {
		return ""
	}
	user, err := s.userRepo.FindByID(ctx, *req.UserID)
	if err != nil {
		return ""
	}
	return user.Email
}

// ProcessUserRegistration creates a verified account from an approved request.
func (s *reconciliationService) ProcessUserRegistration(ctx context.Context, actor model.ActorContext, requestID uint) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	req, err := s.registrationRepo.FindUserRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Processed {
		return nil, ErrRequestAlreadyProcessed
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         model.RoleUser,
		IsVerified:   true,
	}

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.timeout, func(tx *gorm.DB) error {
		changed, err := s.registrationRepo.WithTx(tx).MarkUserRequestProcessed(ctx, req.ID)
		if err != nil {
			return err
		}
		if !changed {
			return ErrRequestAlreadyProcessed
		}
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict(apperrors.ResourceAlreadyExists, "username or email is already registered").WithCause(err)
			}
			return err
		}
		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionProcessUser, map[string]interface{}{
			"request_id": req.ID,
			"user_id":    user.ID,
			"username":   user.Username,
		})
		return err
	})
	if err != nil {
		return nil, txFailure(err)
	}

	s.activities.publish(activity)
	s.notify(ctx, notify.EventAccountApproved, user.Email, map[string]string{
		"username": user.Username,
		"user_id":  strconv.FormatUint(uint64(user.ID), 10),
	})

	logger.Info("User registration processed", map[string]interface{}{
		"request_id": req.ID,
		"user_id":    user.ID,
	})
	return user, nil
}

// notify runs after commit; failures are logged and never undo the write.
func (s *reconciliationService) notify(ctx context.Context, event notify.Event, recipient string, payload map[string]string) {
	if err := s.notifier.Send(ctx, event, recipient, payload); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("Notification failed after commit", map[string]interface{}{
			"event":     event,
			"recipient": recipient,
			"error":     err.Error(),
		})
	}
}
