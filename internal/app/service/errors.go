package service

import (
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
)

var (
	ErrUnauthenticated = apperrors.NewAuthorization(apperrors.AuthUnauthorized, "authentication required")
	ErrForbidden       = apperrors.NewAuthorization(apperrors.AuthzForbidden, "only the owner or an administrator may change this business")
	ErrAdminOnly       = apperrors.NewAuthorization(apperrors.AuthzAdminOnly, "administrator role required")
	ErrOwnerOnly       = apperrors.NewAuthorization(apperrors.AuthzOwnerOnly, "only the owner may do this")

	ErrBusinessNotFound = apperrors.NewNotFound(apperrors.BusinessNotFound, "business not found")
	ErrCategoryNotFound = apperrors.NewNotFound(apperrors.CategoryNotFound, "category not found")
	ErrUserNotFound     = apperrors.NewNotFound(apperrors.UserNotFound, "user not found")
	ErrPlanNotFound     = apperrors.NewNotFound(apperrors.PlanNotFound, "subscription plan not found")
	ErrRequestNotFound  = apperrors.NewNotFound(apperrors.RequestNotFound, "request not found")
	ErrClaimNotFound    = apperrors.NewNotFound(apperrors.ClaimNotFound, "claim request not found")

	ErrCategoryRequired     = apperrors.NewValidation(apperrors.ValidationRequired, "category name is required")
	ErrInvalidStatus        = apperrors.NewValidation(apperrors.ValidationInvalidStatus, "status must be one of pending, active, suspended, deleted")
	ErrInvalidMediaKind     = apperrors.NewValidation(apperrors.ValidationInvalidInput, "media kind must be image or video")
	ErrMediaConflict        = apperrors.NewValidation(apperrors.ValidationMediaConflict, "both media slots cannot hold a video")
	ErrSubscriptionRequired = apperrors.NewValidation(apperrors.BusinessSubscriptionNeeded, "media uploads require an active subscription")
	ErrInvalidRequestKind   = apperrors.NewValidation(apperrors.RequestInvalidKind, "kind must be business, user or claim")
	ErrInvalidRole          = apperrors.NewValidation(apperrors.ValidationInvalidInput, "role must be user, owner or admin")
	ErrClaimNotClosable     = apperrors.NewValidation(apperrors.RequestInvalidKind, "claims are closed by approving or rejecting them")

	ErrRequestAlreadyProcessed = apperrors.NewConflict(apperrors.RequestAlreadyProcessed, "request has already been processed")
	ErrDuplicateClaim          = apperrors.NewConflict(apperrors.ResourceAlreadyExists, "you already have a pending claim for this business")
	ErrUserOwnsBusiness        = apperrors.NewConflict(apperrors.UserOwnsBusiness, "user still owns a business")
	ErrUserHasClaims           = apperrors.NewConflict(apperrors.UserHasClaims, "user has claim requests on record")
	ErrClaimRejected           = apperrors.NewConflict(apperrors.ClaimRejected, "claim request was rejected")
	ErrResourceInUse           = apperrors.NewConflict(apperrors.ResourceConflict, "the record is still referenced by other data")
	ErrEmailExists             = apperrors.NewConflict(apperrors.AuthEmailAlreadyExists, "email is already registered")
	ErrUsernameExists          = apperrors.NewConflict(apperrors.AuthUsernameExists, "username is already taken")
	ErrSlugExhausted           = apperrors.NewConflict(apperrors.ResourceConflict, "could not allocate a unique slug")
	ErrCategoryContention      = apperrors.NewConflict(apperrors.ResourceConflict, "category could not be resolved, please retry")
)

func validationError(message string) *apperrors.AppError {
	return apperrors.NewValidation(apperrors.ValidationInvalidInput, message)
}
