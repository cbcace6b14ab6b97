package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// MaintenanceScheduler runs the intake digest and token cleanup on cron
// schedules.
type MaintenanceScheduler struct {
	cron        *cron.Cron
	maintenance service.MaintenanceService
	digestSpec  string
	cleanupSpec string
}

func NewMaintenanceScheduler(maintenance service.MaintenanceService, digestSpec, cleanupSpec string) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:        cron.New(),
		maintenance: maintenance,
		digestSpec:  digestSpec,
		cleanupSpec: cleanupSpec,
	}
}

// Start registers both jobs and starts the cron runner. An invalid spec
// fails before anything runs.
func (s *MaintenanceScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.digestSpec, s.runDigest); err != nil {
		logger.Error("Failed to add cron job for intake digest", err, map[string]interface{}{
			"spec": s.digestSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(s.cleanupSpec, s.runTokenCleanup); err != nil {
		logger.Error("Failed to add cron job for token cleanup", err, map[string]interface{}{
			"spec": s.cleanupSpec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"digest":        s.digestSpec,
		"token_cleanup": s.cleanupSpec,
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.maintenance.SendIntakeDigest(ctx)
	if err != nil {
		logger.Error("Scheduled intake digest failed", err)
		return
	}
	logger.Info("Scheduled intake digest finished", map[string]interface{}{
		"recipients": sent,
	})
}

func (s *MaintenanceScheduler) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	purged, err := s.maintenance.PurgeExpiredTokens(ctx)
	if err != nil {
		logger.Error("Scheduled token cleanup failed", err)
		return
	}
	logger.Debug("Scheduled token cleanup finished", map[string]interface{}{
		"purged": purged,
	})
}
