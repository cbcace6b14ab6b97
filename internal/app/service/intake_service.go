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
	"github.com/ikkim/bizdirectory-backend/pkg/metrics"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"gorm.io/gorm"
)

type BusinessRegistrationInput struct {
	BusinessName  string
	ShopNo        string
	BlockNum      string
	PhoneNumber   string
	Email         string
	Description   string
	Category      string
	WebsiteURL    string
	SocialHandles []string
}

type UserRegistrationInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Phone    string
}

type ClaimInput struct {
	PhoneNumber string
	Email       string
	Category    string
	Description string
}

// PendingRequests holds the queue selected by kind; the other slices stay nil.
type PendingRequests struct {
	Kind                  model.RequestKind                   `json:"kind"`
	BusinessRegistrations []model.BusinessRegistrationRequest `json:"business_registrations,omitempty"`
	UserRegistrations     []model.UserRegistrationRequest     `json:"user_registrations,omitempty"`
	Claims                []model.ClaimRequest                `json:"claims,omitempty"`
}

type IntakeService interface {
	SubmitBusinessRegistration(ctx context.Context, actor *model.ActorContext, input BusinessRegistrationInput) (uint, error)
	SubmitUserRegistration(ctx context.Context, input UserRegistrationInput) (uint, error)
	SubmitClaim(ctx context.Context, actor model.ActorContext, businessID uint, input ClaimInput) (uint, error)
	ListPending(ctx context.Context, actor model.ActorContext, kind model.RequestKind) (*PendingRequests, error)
	MarkProcessed(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint) (bool, error)
	Reject(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint) (bool, error)
	PendingCounts(ctx context.Context) (*repository.PendingCounts, error)
}

type intakeService struct {
	db               *gorm.DB
	registrationRepo repository.RegistrationRepository
	claimRepo        repository.ClaimRepository
	businessRepo     repository.BusinessRepository
	userRepo         repository.UserRepository
	activities       activityLog
	txTimeout        time.Duration
}

func NewIntakeService(
	database *gorm.DB,
	registrationRepo repository.RegistrationRepository,
	claimRepo repository.ClaimRepository,
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	publisher ActivityPublisher,
	txTimeout time.Duration,
) IntakeService {
	return &intakeService{
		db:               database,
		registrationRepo: registrationRepo,
		claimRepo:        claimRepo,
		businessRepo:     businessRepo,
		userRepo:         userRepo,
		activities:       newActivityLog(activityRepo, publisher),
		txTimeout:        txTimeout,
	}
}

// SubmitBusinessRegistration stores a pending request. actor is nil for
// anonymous submissions.
func (s *intakeService) SubmitBusinessRegistration(ctx context.Context, actor *model.ActorContext, input BusinessRegistrationInput) (uint, error) {
	name := strings.TrimSpace(input.BusinessName)
	phone := strings.TrimSpace(input.PhoneNumber)
	category := model.NormalizeCategoryName(input.Category)
	email := strings.TrimSpace(input.Email)

	switch {
	case name == "":
		return 0, validationError("business name is required")
	case phone == "":
		return 0, validationError("phone number is required")
	case !util.ValidPhone(phone):
		return 0, validationError("phone number must have at least 10 digits")
	case category == "":
		return 0, ErrCategoryRequired
	case email != "" && !util.ValidEmail(email):
		return 0, validationError("email address is invalid")
	}

	handles := make([]string, 0, len(input.SocialHandles))
	for _, h := range input.SocialHandles {
		if h = strings.TrimSpace(h); h != "" {
			handles = append(handles, h)
		}
	}

	req := &model.BusinessRegistrationRequest{
		BusinessName:  name,
		ShopNo:        strings.TrimSpace(input.ShopNo),
		BlockNum:      strings.TrimSpace(input.BlockNum),
		PhoneNumber:   phone,
		Email:         email,
		Description:   strings.TrimSpace(input.Description),
		Category:      category,
		WebsiteURL:    strings.TrimSpace(input.WebsiteURL),
		SocialHandles: handles,
	}
	if actor != nil && actor.Authenticated() {
		uid := actor.UserID
		req.UserID = &uid
	}

	if err := s.registrationRepo.CreateBusinessRequest(ctx, req); err != nil {
		return 0, err
	}

	metrics.IntakeSubmissions.WithLabelValues(string(model.RequestBusiness)).Inc()
	logger.Info("Business registration submitted", map[string]interface{}{
		"request_id":    req.ID,
		"business_name": req.BusinessName,
		"user_id":       req.UserID,
	})
	return req.ID, nil
}

func validateUserInput(input UserRegistrationInput) error {
	switch {
	case !util.ValidUsername(input.Username):
		return validationError("username must be at least 3 characters of letters, digits or underscores")
	case !util.ValidEmail(input.Email):
		return validationError("email address is invalid")
	case !util.ValidPhone(input.Phone):
		return validationError("phone number must have at least 10 digits")
	case !util.ValidPassword(input.Password):
		return validationError("password must be at least 8 characters")
	}
	return nil
}

func (s *intakeService) SubmitUserRegistration(ctx context.Context, input UserRegistrationInput) (uint, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validateUserInput(input); err != nil {
		return 0, err
	}

	if err := s.ensureAccountFree(ctx, input.Username, input.Email); err != nil {
		return 0, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password for registration request", err)
		return 0, err
	}

	req := &model.UserRegistrationRequest{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Phone:        input.Phone,
	}
	if err := s.registrationRepo.CreateUserRequest(ctx, req); err != nil {
		return 0, err
	}

	metrics.IntakeSubmissions.WithLabelValues(string(model.RequestUser)).Inc()
	logger.Info("User registration submitted", map[string]interface{}{
		"request_id": req.ID,
		"username":   req.Username,
	})
	return req.ID, nil
}

// ensureAccountFree rejects usernames and emails that already belong to an account.
func (s *intakeService) ensureAccountFree(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByLogin(ctx, username); err == nil {
		return ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *intakeService) SubmitClaim(ctx context.Context, actor model.ActorContext, businessID uint, input ClaimInput) (uint, error) {
	if !actor.Authenticated() {
		return 0, ErrUnauthenticated
	}

	category := model.NormalizeCategoryName(input.Category)
	phone := strings.TrimSpace(input.PhoneNumber)
	email := strings.TrimSpace(input.Email)
	switch {
	case category == "":
		return 0, ErrCategoryRequired
	case phone != "" && !util.ValidPhone(phone):
		return 0, validationError("phone number must have at least 10 digits")
	case email != "" && !util.ValidEmail(email):
		return 0, validationError("email address is invalid")
	}

	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrBusinessNotFound
		}
		return 0, err
	}

	pending, err := s.claimRepo.HasPending(ctx, businessID, actor.UserID)
	if err != nil {
		return 0, err
	}
	if pending {
		return 0, ErrDuplicateClaim
	}

	claim := &model.ClaimRequest{
		BusinessID:  businessID,
		UserID:      actor.UserID,
		PhoneNumber: phone,
		Email:       email,
		Category:    category,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return 0, err
	}

	metrics.IntakeSubmissions.WithLabelValues(string(model.RequestClaim)).Inc()
	logger.Info("Claim submitted", map[string]interface{}{
		"claim_id":    claim.ID,
		"business_id": businessID,
		"user_id":     actor.UserID,
	})
	return claim.ID, nil
}

func (s *intakeService) ListPending(ctx context.Context, actor model.ActorContext, kind model.RequestKind) (*PendingRequests, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	result := &PendingRequests{Kind: kind}
	var err error
	switch kind {
	case model.RequestBusiness:
		result.BusinessRegistrations, err = s.registrationRepo.ListPendingBusinessRequests(ctx)
	case model.RequestUser:
		result.UserRegistrations, err = s.registrationRepo.ListPendingUserRequests(ctx)
	case model.RequestClaim:
		result.Claims, err = s.claimRepo.ListPending(ctx)
	default:
		return nil, ErrInvalidRequestKind
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkProcessed closes a registration request without applying it.
// Repeating it is a no-op; the bool reports whether this call changed
// anything. Claims only close through approval or rejection.
func (s *intakeService) MarkProcessed(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint) (bool, error) {
	if kind == model.RequestClaim && actor.IsAdmin() {
		return false, ErrClaimNotClosable
	}
	return s.close(ctx, actor, kind, id, model.ActionMarkProcessed)
}

// Reject closes a request without applying it and logs the rejection.
// Registrations become processed; claims get their own rejected flag and
// stay unreviewed.
func (s *intakeService) Reject(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint) (bool, error) {
	return s.close(ctx, actor, kind, id, model.ActionRejectRequest)
}

func (s *intakeService) close(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint, action string) (bool, error) {
	if !actor.IsAdmin() {
		return false, ErrAdminOnly
	}
	if !model.ValidRequestKind(kind) {
		return false, ErrInvalidRequestKind
	}
	if err := s.ensureRequestExists(ctx, kind, id); err != nil {
		return false, err
	}

	var changed bool
	var activity *model.AdminActivity
	err := db.WithTransaction(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		var err error
		switch kind {
		case model.RequestBusiness:
			changed, err = s.registrationRepo.WithTx(tx).MarkBusinessRequestProcessed(ctx, id)
		case model.RequestUser:
			changed, err = s.registrationRepo.WithTx(tx).MarkUserRequestProcessed(ctx, id)
		case model.RequestClaim:
			adminID := actor.UserID
			changed, err = s.claimRepo.WithTx(tx).MarkRejected(ctx, id, &adminID)
		}
		if err != nil || !changed {
			return err
		}
		activity, err = s.activities.record(ctx, tx, actor.UserID, action, map[string]interface{}{
			"kind":       kind,
			"request_id": id,
		})
		return err
	})
	if err != nil {
		return false, txFailure(err)
	}

	s.activities.publish(activity)
	logger.Info("Intake request closed", map[string]interface{}{
		"kind":       kind,
		"request_id": id,
		"action":     action,
		"changed":    changed,
	})
	return changed, nil
}

func (s *intakeService) ensureRequestExists(ctx context.Context, kind model.RequestKind, id uint) error {
	var err error
	switch kind {
	case model.RequestBusiness:
		_, err = s.registrationRepo.FindBusinessRequest(ctx, id)
	case model.RequestUser:
		_, err = s.registrationRepo.FindUserRequest(ctx, id)
	case model.RequestClaim:
		_, err = s.claimRepo.FindByID(ctx, id)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if kind == model.RequestClaim {
			return ErrClaimNotFound
		}
		return ErrRequestNotFound
	}
	return err
}

func (s *intakeService) PendingCounts(ctx context.Context) (*repository.PendingCounts, error) {
	businesses, users, err := s.registrationRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := s.claimRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &repository.PendingCounts{
		BusinessRegistrations: businesses,
		UserRegistrations:     users,
		Claims:                claims,
	}, nil
}
