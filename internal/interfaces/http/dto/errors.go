package dto

import "net/http"

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
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Connection error codes
const (
	// ErrCodePlatformNotConnected is used when no credential is stored for the platform
	ErrCodePlatformNotConnected = "ERR_PLATFORM_NOT_CONNECTED"
	// ErrCodeAuthExpired is used when the token refresh failed and the platform
	// must be re-authorized through the redirect flow
	ErrCodeAuthExpired = "ERR_AUTH_EXPIRED"
	// ErrCodeAuthExchangeFailed is used when the authorization code exchange failed
	ErrCodeAuthExchangeFailed = "ERR_AUTH_EXCHANGE_FAILED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeSyncConflict is used when a write-back carried a stale sync token
	ErrCodeSyncConflict = "ERR_SYNC_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Upstream error codes
const (
	// ErrCodeRemoteAPI is used when the remote platform call failed
	ErrCodeRemoteAPI = "ERR_REMOTE_API"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodePlatformNotConnected: http.StatusUnauthorized,
	ErrCodeAuthExpired:          http.StatusUnauthorized,
	ErrCodeAuthExchangeFailed:   http.StatusBadGateway,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeSyncConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeRemoteAPI: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the API's standardized codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":    ErrCodeConflict,
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"INVALID_STATE":     ErrCodeInvalidState,
	"INVALID_PLATFORM":  ErrCodeInvalidInput,
	"MISSING_REMOTE_ID": ErrCodeInvalidInput,
	"MISSING_NAME":      ErrCodeInvalidInput,
	"INVALID_STATUS":    ErrCodeInvalidInput,
	"INVALID_KIND":      ErrCodeInvalidInput,
	"INVALID_TOKEN":     ErrCodeAuthExchangeFailed,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// If the code is already in the new format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
