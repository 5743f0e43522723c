package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Pairing
	ErrCodePairingNotFound    ErrorCode = "PAIRING_NOT_FOUND"
	ErrCodePairingExpired     ErrorCode = "PAIRING_EXPIRED"
	ErrCodeAlreadyPaired      ErrorCode = "ALREADY_PAIRED"
	ErrCodeInvalidPairingCode ErrorCode = "INVALID_PAIRING_CODE"

	// Premium codes
	ErrCodeInvalidPremiumCode ErrorCode = "INVALID_PREMIUM_CODE"
	ErrCodePremiumCodeUsed    ErrorCode = "PREMIUM_CODE_USED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeCodeSpaceExhausted ErrorCode = "CODE_SPACE_EXHAUSTED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase           ErrorCode = "DATABASE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, apperrors.AlreadyPaired()).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func PairingNotFound() *AppError {
	return New(ErrCodePairingNotFound, "Pairing code not found")
}

func PairingExpired() *AppError {
	return New(ErrCodePairingExpired, "Pairing code has expired")
}

func AlreadyPaired() *AppError {
	return New(ErrCodeAlreadyPaired, "Pairing code has already been used")
}

// InvalidPairingCode is the external form of both PairingNotFound and
// PairingExpired.
func InvalidPairingCode() *AppError {
	return New(ErrCodeInvalidPairingCode, "Invalid or expired pairing code")
}

func InvalidPremiumCode() *AppError {
	return New(ErrCodeInvalidPremiumCode, "Invalid premium code")
}

func PremiumCodeUsed() *AppError {
	return New(ErrCodePremiumCodeUsed, "Premium code has already been used")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func CodeSpaceExhausted(attempts int) *AppError {
	return New(ErrCodeCodeSpaceExhausted, fmt.Sprintf("No free pairing code after %d attempts", attempts))
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
