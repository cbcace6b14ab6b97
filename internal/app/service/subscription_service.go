package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	GetForBusiness(ctx context.Context, actor model.ActorContext, businessID uint) (*model.Subscription, error)
	SetSubscription(ctx context.Context, actor model.ActorContext, businessID, planID uint) (model.SubscriptionStatus, error)
	RequestSubscription(ctx context.Context, actor model.ActorContext, businessID, planID uint) (*model.Subscription, error)
	CancelSubscription(ctx context.Context, actor model.ActorContext, businessID uint) error
}

type subscriptionService struct {
	db           *gorm.DB
	subRepo      repository.SubscriptionRepository
	businessRepo repository.BusinessRepository
	activities   activityLog
	txTimeout    time.Duration
}

func NewSubscriptionService(
	database *gorm.DB,
	subRepo repository.SubscriptionRepository,
	businessRepo repository.BusinessRepository,
	activityRepo repository.ActivityRepository,
	publisher ActivityPublisher,
	txTimeout time.Duration,
) SubscriptionService {
	return &subscriptionService{
		db:           database,
		subRepo:      subRepo,
		businessRepo: businessRepo,
		activities:   newActivityLog(activityRepo, publisher),
		txTimeout:    txTimeout,
	}
}

func (s *subscriptionService) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.subRepo.ListPlans(ctx)
}

func (s *subscriptionService) loadAuthorized(ctx context.Context, actor model.ActorContext, businessID uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if err := authorize(actor, business); err != nil {
		return nil, err
	}
	return business, nil
}

func (s *subscriptionService) findPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error) {
	plan, err := s.subRepo.FindPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *subscriptionService) GetForBusiness(ctx context.Context, actor model.ActorContext, businessID uint) (*model.Subscription, error) {
	if _, err := s.loadAuthorized(ctx, actor, businessID); err != nil {
		return nil, err
	}
	sub, err := s.subRepo.FindByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// SetSubscription confirms the plan for the business and flips is_subscribed.
// Confirmation stands in for payment, so only an admin may do it; owners go
// through RequestSubscription.
func (s *subscriptionService) SetSubscription(ctx context.Context, actor model.ActorContext, businessID, planID uint) (model.SubscriptionStatus, error) {
	if !actor.IsAdmin() {
		return "", ErrAdminOnly
	}
	if _, err := s.loadAuthorized(ctx, actor, businessID); err != nil {
		return "", err
	}
	plan, err := s.findPlan(ctx, planID)
	if err != nil {
		return "", err
	}

	var activity *model.AdminActivity
	err = db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		sub := &model.Subscription{
			BusinessID:   businessID,
			PlanID:       plan.ID,
			Status:       model.SubscriptionConfirmed,
			SubscribedAt: time.Now(),
		}
		if err := s.subRepo.WithTx(tx).Upsert(ctx, sub); err != nil {
			return err
		}
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, businessID, map[string]interface{}{"is_subscribed": true}); err != nil {
			return err
		}
		var err error
		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionSetSubscription, map[string]interface{}{
			"business_id": businessID,
			"plan":        plan.Name,
		})
		return err
	})
	if err != nil {
		err = txFailure(err)
		logTxError("Failed to set subscription", err, map[string]interface{}{
			"business_id": businessID,
			"plan_id":     planID,
		})
		return "", err
	}

	s.activities.publish(activity)
	logger.Info("Subscription confirmed", map[string]interface{}{
		"business_id": businessID,
		"plan":        plan.Name,
	})
	return model.SubscriptionConfirmed, nil
}

// RequestSubscription records the owner's chosen plan as pending without
// marking the business subscribed.
func (s *subscriptionService) RequestSubscription(ctx context.Context, actor model.ActorContext, businessID, planID uint) (*model.Subscription, error) {
	business, err := s.loadAuthorized(ctx, actor, businessID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(business.OwnerID) {
		return nil, ErrOwnerOnly
	}
	plan, err := s.findPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.subRepo.FindByBusiness(ctx, businessID); err == nil && existing.Status == model.SubscriptionConfirmed {
		return nil, ErrRequestAlreadyProcessed
	}

	sub := &model.Subscription{
		BusinessID:   businessID,
		PlanID:       plan.ID,
		Status:       model.SubscriptionPending,
		SubscribedAt: time.Now(),
	}
	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	logger.Info("Subscription requested", map[string]interface{}{
		"business_id": businessID,
		"plan":        plan.Name,
	})
	return s.subRepo.FindByBusiness(ctx, businessID)
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, actor model.ActorContext, businessID uint) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	if _, err := s.loadAuthorized(ctx, actor, businessID); err != nil {
		return err
	}

	var activity *model.AdminActivity
	err := db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		if _, err := s.subRepo.WithTx(tx).DeleteByBusiness(ctx, businessID); err != nil {
			return err
		}
		if err := s.businessRepo.WithTx(tx).UpdateFields(ctx, businessID, map[string]interface{}{"is_subscribed": false}); err != nil {
			return err
		}
		var err error
		activity, err = s.activities.record(ctx, tx, actor.UserID, model.ActionCancelSubscription, map[string]interface{}{
			"business_id": businessID,
		})
		return err
	})
	if err != nil {
		return txFailure(err)
	}

	s.activities.publish(activity)
	logger.Info("Subscription cancelled", map[string]interface{}{
		"business_id": businessID,
	})
	return nil
}
