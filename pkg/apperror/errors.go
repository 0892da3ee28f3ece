package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the application error type returned by handlers and services.
// Fields carries per-field messages for validation and conflict responses
// (e.g. {"email": "Email đã tồn tại"}). Internal is never shown to clients.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Internal   error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithField attaches a field-level message and returns the error.
func (e *AppError) WithField(field, message string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// NewValidationError - malformed or rejected input.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConflictError - duplicate email, duplicate outstanding token.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewNotFoundError - unknown user, order or token.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewUnauthorizedError - bad password or OTP mismatch.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbiddenError - authenticated but not allowed.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewExpiredError - reset token past its expiry timestamp.
func NewExpiredError(message string) *AppError {
	return &AppError{
		Code:       "EXPIRED",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidTransitionError - order status change not permitted.
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Code:       "INVALID_TRANSITION",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewRateLimitError - too many requests for one key.
func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewInternalError - unexpected failure, internal error kept for logs.
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewDatabaseError - persistence failure during the named operation.
func NewDatabaseError(operation string, internal error) *AppError {
	return &AppError{
		Code:       "DATABASE_ERROR",
		Message:    "Lỗi hệ thống, vui lòng thử lại sau",
		HTTPStatus: http.StatusInternalServerError,
		Internal:   fmt.Errorf("%s: %w", operation, internal),
	}
}

// IsAppError reports whether err is an *AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// FromError converts err to *AppError, wrapping unknown errors as internal.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError("Lỗi hệ thống, vui lòng thử lại sau", err)
}
