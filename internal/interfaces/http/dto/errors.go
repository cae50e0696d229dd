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
	// ErrCodeConfiguration is used when the connector settings are unusable
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	// ErrCodeIO is used when an export or status file cannot be read or written
	ErrCodeIO = "ERR_IO"
)

// Input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when an upload exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeTooManyRequests is used when a client exceeds the rate limit
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// Access error codes
const (
	// ErrCodeForbidden is used when a download token or file name is rejected
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeExportInProgress is used when an export is requested while one runs
	ErrCodeExportInProgress = "ERR_EXPORT_IN_PROGRESS"
	// ErrCodeMapping is used when an ERP status has no store counterpart
	ErrCodeMapping = "ERR_MAPPING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:       http.StatusInternalServerError,
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeConfiguration: http.StatusInternalServerError,
	ErrCodeIO:            http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,

	ErrCodeForbidden: http.StatusForbidden,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeExportInProgress: http.StatusConflict,
	ErrCodeMapping:          http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error categories to API error codes
var DomainErrorCodeMapping = map[string]string{
	"CONFIGURATION_ERROR": ErrCodeConfiguration,
	"IO_ERROR":            ErrCodeIO,
	"NOT_FOUND":           ErrCodeNotFound,
	"MAPPING_ERROR":       ErrCodeMapping,
	"VALIDATION_ERROR":    ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error category to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
