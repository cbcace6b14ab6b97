package errors

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the client-facing view of an error.
type ErrorInfo struct {
	Code    string
	Message string
}

// IsUniqueViolation reports a unique or primary key conflict. The DB must be
// opened with TranslateError so drivers map to gorm.ErrDuplicatedKey; the
// message checks cover drivers that do not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}

func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}

// ParseError converts an arbitrary error into a code and message safe to show
// to clients. AppErrors pass through untouched; raw database errors are
// classified, and anything else becomes a generic message for context.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "internal server error"}
	}

	if appErr, ok := AsAppError(err); ok {
		return ErrorInfo{Code: appErr.Code, Message: appErr.Message}
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	if IsUniqueViolation(err) {
		return parseDuplicateKeyError(err.Error())
	}

	if IsForeignKeyViolation(err) {
		return ErrorInfo{Code: ResourceConflict, Message: "the record is referenced by other data"}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not null constraint") || strings.Contains(msg, "violates not-null") {
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
	}
	if strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout") {
		return ErrorInfo{Code: InternalDatabaseError, Message: "the database took too long to respond, please retry"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email is already in use"}
	case strings.Contains(lower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "username is already taken"}
	case strings.Contains(lower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "slug is already in use"}
	case strings.Contains(lower, "name_key") || strings.Contains(lower, "categories"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "category already exists"}
	default:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "record already exists"}
	}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "business"):
		return "business not found"
	case strings.Contains(lower, "category"):
		return "category not found"
	case strings.Contains(lower, "claim"):
		return "claim request not found"
	case strings.Contains(lower, "user"):
		return "user not found"
	default:
		return "requested record not found"
	}
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "could not create the record, please retry"
	case strings.Contains(lower, "update"):
		return "could not update the record, please retry"
	case strings.Contains(lower, "delete"):
		return "could not delete the record, please retry"
	default:
		return "internal server error, please retry"
	}
}
