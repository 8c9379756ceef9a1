package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
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

// Is matches any AppError with the same code, so copies made by WithError
// and WithMessage still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy with a caller-specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Details returns the wrapped cause, or "" when there is none.
func (e *AppError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Unauthorized",
		StatusCode: 401,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid credentials",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrUserAlreadyExists = &AppError{
		Code:       "USER_ALREADY_EXISTS",
		Message:    "A user with this username already exists",
		StatusCode: 409,
	}

	ErrEmployeeNotFound = &AppError{
		Code:       "EMPLOYEE_NOT_FOUND",
		Message:    "Employee not found",
		StatusCode: 404,
	}

	ErrPhotoNotFound = &AppError{
		Code:       "PHOTO_NOT_FOUND",
		Message:    "Employee has no photo",
		StatusCode: 404,
	}

	// Analysis pipeline
	ErrNoImage = &AppError{
		Code:       "NO_IMAGE",
		Message:    "No image provided",
		StatusCode: 400,
	}

	ErrAnalysisFailed = &AppError{
		Code:       "ANALYSIS_FAILED",
		Message:    "Failed to analyze image",
		StatusCode: 500,
	}

	ErrInvalidSubscription = &AppError{
		Code:       "INVALID_SUBSCRIPTION",
		Message:    "Invalid subscription",
		StatusCode: 400,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Spotify
	ErrSpotifyStateMismatch = &AppError{
		Code:       "STATE_MISMATCH",
		Message:    "State mismatch",
		StatusCode: 400,
	}

	ErrSpotifyNotAuthenticated = &AppError{
		Code:       "SPOTIFY_AUTH_REQUIRED",
		Message:    "Re-authentication required.",
		StatusCode: 401,
	}

	ErrSpotifyPremiumRequired = &AppError{
		Code:       "SPOTIFY_PREMIUM_REQUIRED",
		Message:    "Spotify Premium required for playback control.",
		StatusCode: 403,
	}

	ErrSpotifyNoDevice = &AppError{
		Code:       "SPOTIFY_NO_DEVICE",
		Message:    "No active Spotify device. Open Spotify on a device and try again.",
		StatusCode: 404,
	}

	ErrSpotifyPlaybackFailed = &AppError{
		Code:       "SPOTIFY_PLAYBACK_FAILED",
		Message:    "Failed to start playback",
		StatusCode: 500,
	}
)
