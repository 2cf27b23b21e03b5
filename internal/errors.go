package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeTransient    ErrorType = "TRANSIENT_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionTerminated  ErrorCode = "SESSION_TERMINATED"

	ErrCodeAdmissionDenied   ErrorCode = "ADMISSION_DENIED"
	ErrCodeAlreadyProcessed  ErrorCode = "ALREADY_PROCESSED"
	ErrCodeRequestNotFound   ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeAddressNotFound   ErrorCode = "ADDRESS_NOT_FOUND"
	ErrCodePrincipalNotFound ErrorCode = "PRINCIPAL_NOT_FOUND"

	ErrCodeSuperAdminOnly     ErrorCode = "SUPER_ADMIN_ONLY"
	ErrCodeCapabilityRequired ErrorCode = "CAPABILITY_REQUIRED"
	ErrCodeNotGrantable       ErrorCode = "NOT_GRANTABLE"

	ErrCodePartialWrite ErrorCode = "PARTIAL_WRITE_FAILURE"
	ErrCodeStoreTimeout ErrorCode = "STORE_TIMEOUT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	copied := *e
	copied.Cause = cause
	return &copied
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	copied := *e
	copied.Details = details
	return &copied
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewTransientError covers bounded-timeout store failures. The caller may
// retry once; after that it is surfaced to the user as a try-again error.
func NewTransientError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransient,
		Code:       ErrCodeStoreTimeout,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	// Credential failures stay generic on purpose: the response never says
	// which field was wrong.
	ErrInvalidCredentials = NewUnauthorizedError("invalid credentials", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrSessionTerminated  = NewUnauthorizedError("session is no longer active", ErrCodeSessionTerminated)

	ErrAdmissionDenied  = NewForbiddenError("account deactivated", ErrCodeAdmissionDenied)
	ErrAlreadyProcessed = NewConflictError("approval request already processed", ErrCodeAlreadyProcessed)
	ErrRequestNotFound  = NewNotFoundError("approval request not found", ErrCodeRequestNotFound)
	ErrAddressNotFound  = NewNotFoundError("approved address not found", ErrCodeAddressNotFound)

	ErrPrincipalNotFound = NewNotFoundError("principal not found", ErrCodePrincipalNotFound)

	ErrSuperAdminOnly     = NewForbiddenError("super admin privileges required", ErrCodeSuperAdminOnly)
	ErrCapabilityRequired = NewForbiddenError("insufficient permissions", ErrCodeCapabilityRequired)

	// ErrPartialWrite marks the approve-path two-step write failing halfway.
	// The compensating rollback has already run by the time callers see it.
	ErrPartialWrite = NewInternalError("approval could not be completed, please try again", nil)
)

func init() {
	ErrPartialWrite.Code = ErrCodePartialWrite
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
