package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"gorm.io/gorm"
)

// ResetTokenExpiry is how long a password reset link stays valid.
const ResetTokenExpiry = 1 * time.Hour

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	auth     *authService
	userRepo repository.UserRepository
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	tokenRepo repository.UserTokenRepository,
	notifier notify.Notifier,
) PasswordResetService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &passwordResetService{
		auth:     &authService{userRepo: userRepo, tokenRepo: tokenRepo, notifier: notifier},
		userRepo: userRepo,
	}
}

// RequestReset never reveals whether the address has an account.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}

	if err := s.auth.issueToken(ctx, user, model.TokenPasswordReset, ResetTokenExpiry, notify.EventPasswordReset); err != nil {
		logger.Error("Failed to issue password reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !util.ValidPassword(newPassword) {
		return validationError("password must be at least 8 characters")
	}

	resetToken, err := s.auth.consumeToken(ctx, token, model.TokenPasswordReset)
	if err != nil {
		logger.Warn("Password reset with invalid token")
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, resetToken.UserID, map[string]interface{}{"password_hash": hash}); err != nil {
		return err
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id": resetToken.UserID,
	})
	return nil
}
