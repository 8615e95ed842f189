package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeUnauthorized       ErrorType = "unauthorized"
	ErrorTypeForbidden          ErrorType = "forbidden"
	ErrorTypeRateLimit          ErrorType = "rate_limit"
	ErrorTypeKeyUnavailable     ErrorType = "key_unavailable"
	ErrorTypeSigning            ErrorType = "signing_failure"
	ErrorTypeStore              ErrorType = "store_failure"
	ErrorTypeInternal           ErrorType = "internal"
)

// FieldError is a single field-level validation message
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  []FieldError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type, so errors.Is(err, ErrUnauthenticated)
// works for every unauthenticated failure regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds a validation error carrying one entry per field
func NewValidationError(fields ...FieldError) *DomainError {
	msg := "validation failed"
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &DomainError{Type: ErrorTypeValidation, Message: msg, Fields: fields}
}

var (
	ErrUserNotFound   = NewDomainError(ErrorTypeNotFound, "User does not exist.", nil)
	ErrTenantNotFound = NewDomainError(ErrorTypeNotFound, "Tenant not found", nil)

	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrUserNameTaken      = NewValidationError(FieldError{Field: "userName", Message: "username already exists"})
	ErrEmailTaken         = NewValidationError(FieldError{Field: "email", Message: "email already exists"})
	ErrInvalidTenantID    = NewValidationError(FieldError{Field: "tenantId", Message: "Invalid tenant id"})
	ErrPasswordTooLong    = NewValidationError(FieldError{Field: "password", Message: "password must be at most 72 bytes long"})
	ErrInvalidCredentials = NewDomainError(ErrorTypeInvalidCredentials, "Username or Email or Password does not match!", nil)

	ErrUnauthenticated   = NewDomainError(ErrorTypeUnauthorized, "Unauthorized", nil)
	ErrForbidden         = NewDomainError(ErrorTypeForbidden, "You don't have enough permissions", nil)
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "Too many requests, please try again later", nil)

	ErrKeyUnavailable = NewDomainError(ErrorTypeKeyUnavailable, "signing key unavailable", nil)
	ErrSigningFailure = NewDomainError(ErrorTypeSigning, "failed to sign token", nil)
	ErrStoreFailure   = NewDomainError(ErrorTypeStore, "session store failure", nil)
	ErrInternal       = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthenticated error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsInternalError reports errors that map to a 500: signing, key, store and generic internal failures
func IsInternalError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeInternal, ErrorTypeKeyUnavailable, ErrorTypeSigning, ErrorTypeStore:
		return true
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetFieldErrors returns the field-level messages of a validation error
func GetFieldErrors(err error) []FieldError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

// WrapError wraps err under the type and message of a sentinel
func WrapError(sentinel *DomainError, err error) error {
	return &DomainError{Type: sentinel.Type, Message: sentinel.Message, Err: err, Fields: sentinel.Fields}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapStore wraps a persistence error
func WrapStore(message string, err error) error {
	return NewDomainError(ErrorTypeStore, message, err)
}
