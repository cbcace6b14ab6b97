package service

import (
	"context"
	"encoding/json"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type ActivityService interface {
	ListRecent(ctx context.Context, actor model.ActorContext, limit int) ([]model.AdminActivity, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) ListRecent(ctx context.Context, actor model.ActorContext, limit int) ([]model.AdminActivity, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return s.repo.ListRecent(ctx, limit)
}

// activityLog writes audit rows inside the caller's transaction and
// publishes them once the transaction has committed.
type activityLog struct {
	repo      repository.ActivityRepository
	publisher ActivityPublisher
}

func newActivityLog(repo repository.ActivityRepository, publisher ActivityPublisher) activityLog {
	return activityLog{repo: repo, publisher: publisherOrNoop(publisher)}
}

func (a activityLog) record(ctx context.Context, tx *gorm.DB, adminID uint, action string, details map[string]interface{}) (*model.AdminActivity, error) {
	activity := &model.AdminActivity{
		AdminID: adminID,
		Action:  action,
		Details: encodeDetails(details),
	}
	if err := a.repo.WithTx(tx).Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (a activityLog) publish(activities ...*model.AdminActivity) {
	for _, activity := range activities {
		if activity != nil {
			a.publisher.Publish(*activity)
		}
	}
}

func encodeDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	raw, err := json.Marshal(details)
	if err != nil {
		logger.Warn("Failed to encode activity details", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return string(raw)
}

// logTxError logs expected outcomes such as a failed validation or a lost
// conflict at Warn, and only unclassified or transaction failures at Error.
func logTxError(msg string, err error, fields map[string]interface{}) {
	if appErr, ok := apperrors.AsAppError(err); ok &&
		appErr.Kind != apperrors.KindInternal && appErr.Kind != apperrors.KindTransactionFailure {
		fields["error"] = appErr.Error()
		fields["code"] = appErr.Code
		logger.Warn(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}

// txFailure keeps typed errors, reports a rejected foreign key as a Conflict
// and hides everything else behind a TransactionFailure.
func txFailure(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if apperrors.IsForeignKeyViolation(err) {
		return ErrResourceInUse
	}
	return apperrors.NewTransactionFailure(err)
}
