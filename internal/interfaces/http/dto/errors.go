package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Workflow error codes
const (
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	ErrCodeUnknownKind       = "ERR_UNKNOWN_KIND"
)

// Ledger error codes
const (
	ErrCodeInsufficientQuantity = "ERR_INSUFFICIENT_QUANTITY"
)

// Reconciliation error codes
const (
	ErrCodeSessionClosed  = "ERR_SESSION_CLOSED"
	ErrCodeAlreadyMatched = "ERR_ALREADY_MATCHED"
	ErrCodeNotMatched     = "ERR_NOT_MATCHED"
	ErrCodeUnbalanced     = "ERR_UNBALANCED_RECONCILIATION"
	ErrCodeEmptyImport    = "ERR_EMPTY_IMPORT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeUnknownKind:       http.StatusBadRequest,

	ErrCodeInsufficientQuantity: http.StatusUnprocessableEntity,

	ErrCodeSessionClosed:  http.StatusUnprocessableEntity,
	ErrCodeAlreadyMatched: http.StatusConflict,
	ErrCodeNotMatched:     http.StatusUnprocessableEntity,
	ErrCodeUnbalanced:     http.StatusUnprocessableEntity,
	ErrCodeEmptyImport:    http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the API error codes.
// Domain codes not listed here pass through NormalizeErrorCode unchanged.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNKNOWN_KIND":         ErrCodeUnknownKind,
	"INVALID_REFERENCE":    ErrCodeInvalidInput,
	"INVALID_BANK_ACCOUNT": ErrCodeInvalidInput,
	"INVALID_PERIOD":       ErrCodeInvalidInput,
	"INVALID_SUBJECT_TYPE": ErrCodeInvalidInput,
	"INVALID_SUBJECT":      ErrCodeInvalidInput,
	"INVALID_CODE":         ErrCodeInvalidInput,
	"INVALID_UNIT":         ErrCodeInvalidInput,
	"INVALID_QUANTITY":     ErrCodeInvalidInput,
	"INVALID_EVENT":        ErrCodeInvalidInput,
	"INVALID_EVENT_TYPE":   ErrCodeInvalidInput,
	"NO_LINES":             ErrCodeEmptyImport,
	"NO_ITEMS":             ErrCodeEmptyImport,
	"NOT_MATCHED":          ErrCodeNotMatched,
}

// NormalizeErrorCode converts a domain error code to the API format.
// If the code is already in the API format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
