package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeLimitReached is used when a feature's usage allowance is exhausted
	ErrCodeLimitReached = "ERR_LIMIT_REACHED"
	// ErrCodeNoSeatsAvailable is used when an institute's seat pool is full
	ErrCodeNoSeatsAvailable = "ERR_NO_SEATS_AVAILABLE"
	// ErrCodeNoSubscription is used when an institute has no active seat pool
	ErrCodeNoSubscription = "ERR_NO_SUBSCRIPTION"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Entitlement denials -> 403 Forbidden
	ErrCodeLimitReached:     http.StatusForbidden,
	ErrCodeNoSeatsAvailable: http.StatusForbidden,
	ErrCodeNoSubscription:   http.StatusForbidden,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps old error codes to new standardized codes
// This is for backward compatibility with existing domain errors
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"LIMIT_REACHED":        ErrCodeLimitReached,
	"NO_SEATS_AVAILABLE":   ErrCodeNoSeatsAvailable,
	"SEAT_UNAVAILABLE":     ErrCodeNoSeatsAvailable,
	"NO_SUBSCRIPTION":      ErrCodeNoSubscription,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,

	// Identity and token codes raised by the auth service
	"INVALID_CREDENTIALS": ErrCodeUnauthorized,
	"ACCOUNT_LOCKED":      ErrCodeForbidden,
	"ACCOUNT_DEACTIVATED": ErrCodeForbidden,
	"ACCOUNT_PENDING":     ErrCodeForbidden,
	"ACCOUNT_INACTIVE":    ErrCodeForbidden,
	"ACCOUNT_NOT_FOUND":   ErrCodeNotFound,
	"INVALID_PASSWORD":    ErrCodeValidation,
	"INVALID_ROLE":        ErrCodeInvalidInput,
	"TOKEN_EXPIRED":       ErrCodeTokenExpired,
	"TOKEN_INVALID":       ErrCodeTokenInvalid,
	"TOKEN_MAX_REFRESH":   ErrCodeTokenInvalid,
	"TOKEN_ERROR":         ErrCodeTokenInvalid,

	// Entitlement and catalog codes
	"INVALID_AUDIENCE":  ErrCodeInvalidInput,
	"INVALID_FEATURE":   ErrCodeInvalidInput,
	"INVALID_LIMIT":     ErrCodeInvalidInput,
	"INVALID_PRINCIPAL": ErrCodeInvalidInput,
	"INVALID_TIER":      ErrCodeInvalidInput,
	"UNKNOWN_PLAN":      ErrCodeNotFound,

	// Institute and enrollment codes
	"INSTITUTE_NOT_FOUND":  ErrCodeNotFound,
	"ENROLLMENT_NOT_FOUND": ErrCodeNotFound,
	"INSTITUTE_INACTIVE":   ErrCodeInvalidState,
	"ALREADY_ENROLLED":     ErrCodeAlreadyExists,
	"ALREADY_MEMBER":       ErrCodeAlreadyExists,
	"ALREADY_REMOVED":      ErrCodeInvalidState,
	"ALREADY_SUSPENDED":    ErrCodeInvalidState,
	"ALREADY_ACTIVE":       ErrCodeInvalidState,
	"ALREADY_INACTIVE":     ErrCodeInvalidState,
	"ALREADY_DEACTIVATED":  ErrCodeInvalidState,
	"NOT_A_STUDENT":        ErrCodeInvalidInput,
	"NOT_LOCKED":           ErrCodeInvalidState,
	"EMAIL_EXISTS":         ErrCodeAlreadyExists,
	"CODE_EXISTS":          ErrCodeAlreadyExists,

	// Library and study codes
	"BOOK_NOT_FOUND":           ErrCodeNotFound,
	"QUIZ_NOT_FOUND":           ErrCodeNotFound,
	"CLASS_NOT_FOUND":          ErrCodeNotFound,
	"UPLOAD_NOT_FOUND":         ErrCodeNotFound,
	"BOOK_NOT_READY":           ErrCodeInvalidState,
	"CLASS_ARCHIVED":           ErrCodeInvalidState,
	"ALREADY_ARCHIVED":         ErrCodeInvalidState,
	"ALREADY_COMPLETED":        ErrCodeInvalidState,
	"ALREADY_DELETED":          ErrCodeInvalidState,
	"ALREADY_FLAGGED":          ErrCodeInvalidState,
	"CANNOT_COMPLETE_DELETED":  ErrCodeInvalidState,
	"CANNOT_UPDATE_DELETED":    ErrCodeInvalidState,
	"INVALID_QUIZ_STATE":       ErrCodeInvalidState,
	"FILE_TOO_LARGE":           ErrCodeValidation,
	"UNSUPPORTED_CONTENT_TYPE": ErrCodeValidation,

	// Infrastructure failures surfaced as domain errors
	"AI_PROVIDER_FAILED":   ErrCodeInternal,
	"REPORT_RENDER_FAILED": ErrCodeInternal,
	"STORAGE_CHECK_FAILED": ErrCodeInternal,
	"UPLOAD_URL_FAILED":    ErrCodeInternal,
	"DOWNLOAD_URL_FAILED":  ErrCodeInternal,
	"PASSWORD_HASH_ERROR":  ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy error code to the standardized format.
// Unmapped INVALID_* codes from domain validation collapse to the generic
// invalid-input code; anything else passes through as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	return code
}
