package errors

// Error codes returned in the "error" field of every JSON error body.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map messages from these.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthEmailNotVerified   = "AUTH_EMAIL_NOT_VERIFIED"
	AuthAccountSuspended   = "AUTH_ACCOUNT_SUSPENDED"
	AuthAlreadyVerified    = "AUTH_ALREADY_VERIFIED"

	// ==================== AUTHZ_ ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidStatus = "VALIDATION_INVALID_STATUS"
	ValidationMediaConflict = "VALIDATION_MEDIA_CONFLICT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== BUSINESS_ ====================
	BusinessNotFound           = "BUSINESS_NOT_FOUND"
	BusinessSubscriptionNeeded = "BUSINESS_SUBSCRIPTION_REQUIRED"
	CategoryNotFound           = "CATEGORY_NOT_FOUND"
	UserNotFound               = "USER_NOT_FOUND"
	UserOwnsBusiness           = "USER_OWNS_BUSINESS"
	UserHasClaims              = "USER_HAS_CLAIMS"
	PlanNotFound               = "PLAN_NOT_FOUND"

	// ==================== REQUEST_ (intake) ====================
	RequestNotFound         = "REQUEST_NOT_FOUND"
	RequestAlreadyProcessed = "REQUEST_ALREADY_PROCESSED"
	RequestInvalidKind      = "REQUEST_INVALID_KIND"
	ClaimNotFound           = "CLAIM_NOT_FOUND"
	ClaimRejected           = "CLAIM_REJECTED"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalTransaction   = "INTERNAL_TRANSACTION_FAILED"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
