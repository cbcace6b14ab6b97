package service

import (
	"context"
	"strconv"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/metrics"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
)

// MaintenanceService holds the periodic jobs run by the scheduler.
type MaintenanceService interface {
	SendIntakeDigest(ctx context.Context) (int, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type maintenanceService struct {
	intake    IntakeService
	userRepo  repository.UserRepository
	tokenRepo repository.UserTokenRepository
	notifier  notify.Notifier
	now       func() time.Time
}

func NewMaintenanceService(
	intake IntakeService,
	userRepo repository.UserRepository,
	tokenRepo repository.UserTokenRepository,
	notifier notify.Notifier,
) MaintenanceService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &maintenanceService{
		intake:    intake,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

// SendIntakeDigest mails the pending queue sizes to every active admin.
// Nothing is sent when all queues are empty. It returns the number of
// admins notified.
func (s *maintenanceService) SendIntakeDigest(ctx context.Context) (int, error) {
	counts, err := s.intake.PendingCounts(ctx)
	if err != nil {
		return 0, err
	}
	if counts.BusinessRegistrations+counts.UserRegistrations+counts.Claims == 0 {
		logger.Debug("Intake digest skipped: no pending requests")
		return 0, nil
	}

	admins, err := s.userRepo.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		return 0, err
	}

	payload := map[string]string{
		"business_registrations": strconv.FormatInt(counts.BusinessRegistrations, 10),
		"user_registrations":     strconv.FormatInt(counts.UserRegistrations, 10),
		"claims":                 strconv.FormatInt(counts.Claims, 10),
	}
	sent := 0
	for _, admin := range admins {
		if err := s.notifier.Send(ctx, notify.EventIntakeDigest, admin.Email, payload); err != nil {
			metrics.NotificationFailures.Inc()
			logger.Warn("Failed to send intake digest", map[string]interface{}{
				"admin_id": admin.ID,
				"error":    err.Error(),
			})
			continue
		}
		sent++
	}

	logger.Info("Intake digest sent", map[string]interface{}{
		"admins":  sent,
		"pending": payload,
	})
	return sent, nil
}

func (s *maintenanceService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	removed, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Purged expired user tokens", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed, nil
}
