package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details,omitempty"`
}

// FailureResponse is the {success:false} body used by the pairing API.
type FailureResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)

	response := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}

	WriteJSON(w, StatusFromCode(appErr.Code), response)
}

// WriteFailure writes err as a {success:false, message, code} body.
func WriteFailure(w http.ResponseWriter, err error) {
	appErr := toAppError(err)

	WriteJSON(w, StatusFromCode(appErr.Code), FailureResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

func toAppError(err error) *apperrors.AppError {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		return apperrors.Internal("An unexpected error occurred")
	}
	switch appErr.Code {
	case apperrors.ErrCodeCodeSpaceExhausted, apperrors.ErrCodeDatabase:
		// internal detail never reaches the client
		return apperrors.New(appErr.Code, "An unexpected error occurred")
	}
	return appErr
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired,
		apperrors.ErrCodeInvalidPairingCode,
		apperrors.ErrCodePairingExpired,
		apperrors.ErrCodeInvalidPremiumCode:
		return http.StatusBadRequest

	// 404 Not Found
	case apperrors.ErrCodePairingNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeAlreadyPaired,
		apperrors.ErrCodePremiumCodeUsed:
		return http.StatusConflict

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 500 Internal Server Error
	case apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase,
		apperrors.ErrCodeCodeSpaceExhausted:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
