package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies the outcome of a core operation.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindAuthorization
	KindValidation
	KindTransactionFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindTransactionFailure:
		return "transaction_failure"
	default:
		return "internal"
	}
}

// AppError carries a Kind, a client-facing code and message, and an optional cause.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by kind and code so wrapped sentinels compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithCause returns a copy of e wrapping err with a stack trace.
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: pkgerrors.WithStack(err)}
}

func NewNotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflict(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func NewAuthorization(code, message string) *AppError {
	return &AppError{Kind: KindAuthorization, Code: code, Message: message}
}

func NewValidation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

// NewTransactionFailure hides err behind a generic message. The cause stays
// reachable through Unwrap for server-side logging.
func NewTransactionFailure(err error) *AppError {
	return &AppError{
		Kind:    KindTransactionFailure,
		Code:    InternalTransaction,
		Message: "the operation could not be completed, please retry",
		Err:     pkgerrors.WithStack(err),
	}
}

// Wrap annotates err with a stack and message without changing its kind.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

// KindOf reports the Kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
