package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperrors.NewAuthorization(apperrors.AuthInvalidCredentials, "invalid login or password")
	ErrEmailNotVerified   = apperrors.NewAuthorization(apperrors.AuthEmailNotVerified, "email address has not been verified")
	ErrUserSuspended      = apperrors.NewAuthorization(apperrors.AuthAccountSuspended, "account is suspended")
	ErrAlreadyVerified    = apperrors.NewConflict(apperrors.AuthAlreadyVerified, "email address is already verified")
	ErrInvalidToken       = apperrors.NewValidation(apperrors.AuthTokenInvalid, "invalid or expired token")
)

const (
	VerificationTokenExpiry = 24 * time.Hour
	userTokenBytes          = 32
)

// TokenBlacklist revokes access tokens before they expire.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
}

type ProfileUpdate struct {
	Name         *string
	Phone        *string
	ProfileImage *string
}

type AuthService interface {
	Register(ctx context.Context, input UserRegistrationInput) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, login, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	GetMe(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, input ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	tokenRepo     repository.UserTokenRepository
	notifier      notify.Notifier
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.UserTokenRepository,
	notifier notify.Notifier,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &authService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		notifier:      notifier,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates an unverified account and emails a verification link.
func (s *authService) Register(ctx context.Context, input UserRegistrationInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	logger.Info("Attempting user registration", map[string]interface{}{
		"email":    input.Email,
		"username": input.Username,
	})

	if err := validateUserInput(input); err != nil {
		logger.Warn("Registration rejected", map[string]interface{}{
			"email":  input.Email,
			"reason": err.Error(),
		})
		return nil, err
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, err
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(input.Name),
		Phone:        input.Phone,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, s.duplicateAccountError(ctx, input.Email)
		}
		return nil, err
	}

	if err := s.issueToken(ctx, user, model.TokenEmailVerification, VerificationTokenExpiry, notify.EventVerifyEmail); err != nil {
		logger.Warn("Verification email not sent after registration", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

func (s *authService) duplicateAccountError(ctx context.Context, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// issueToken stores a single-use token and mails it to the user.
func (s *authService) issueToken(ctx context.Context, user *model.User, purpose model.TokenPurpose, ttl time.Duration, event notify.Event) error {
	raw, err := util.GenerateSecureToken(userTokenBytes)
	if err != nil {
		return err
	}
	if err := s.tokenRepo.InvalidateForUser(ctx, user.ID, purpose); err != nil {
		return err
	}
	token := &model.UserToken{
		UserID:    user.ID,
		Purpose:   purpose,
		Token:     raw,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return err
	}
	return s.notifier.Send(ctx, event, user.Email, map[string]string{"token": raw})
}

func (s *authService) consumeToken(ctx context.Context, raw string, purpose model.TokenPurpose) (*model.UserToken, error) {
	token, err := s.tokenRepo.FindValid(ctx, raw, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	used, err := s.tokenRepo.MarkUsed(ctx, token.ID)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, ErrInvalidToken
	}
	return token, nil
}

func (s *authService) VerifyEmail(ctx context.Context, raw string) (*model.User, error) {
	token, err := s.consumeToken(ctx, raw, model.TokenEmailVerification)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(ctx, token.UserID, map[string]interface{}{"is_verified": true}); err != nil {
		return nil, err
	}

	logger.Info("Email verified", map[string]interface{}{
		"user_id": token.UserID,
	})
	return s.GetMe(ctx, token.UserID)
}

// ResendVerification is silent about unknown addresses.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Verification resend for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	return s.issueToken(ctx, user, model.TokenEmailVerification, VerificationTokenExpiry, notify.EventVerifyEmail)
}

// Login accepts either the email or the username.
func (s *authService) Login(ctx context.Context, login, password string) (*model.User, *util.TokenPair, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
	}

	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown account", map[string]interface{}{
				"login": login,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, nil, ErrUserSuspended
	}
	if !user.IsVerified {
		return nil, nil, ErrEmailNotVerified
	}

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

// Refresh issues a new pair with the user's current role.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Suspended {
		return nil, ErrUserSuspended
	}
	return util.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
}

// Logout revokes the access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	if s.blacklist == nil {
		return nil
	}
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil
	}
	return s.blacklist.BlacklistToken(ctx, accessToken, claims.RemainingTTL())
}

func (s *authService) GetMe(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, input ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if input.Name != nil {
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" && !util.ValidPhone(phone) {
			return nil, validationError("phone number must have at least 10 digits")
		}
		fields["phone"] = phone
	}
	if input.ProfileImage != nil {
		fields["profile_image"] = strings.TrimSpace(*input.ProfileImage)
	}

	if _, err := s.GetMe(ctx, userID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
		logger.Info("Profile updated", map[string]interface{}{
			"user_id": userID,
		})
	}
	return s.GetMe(ctx, userID)
}
