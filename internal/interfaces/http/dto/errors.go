package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall through to 500.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"INVALID_INPUT":        http.StatusBadRequest,

	// Ledger rejections
	"ALREADY_PAID":               http.StatusUnprocessableEntity,
	"AMOUNT_EXCEEDS_REMAINING":   http.StatusUnprocessableEntity,
	"NO_INSTALLMENTS_SELECTED":   http.StatusBadRequest,
	"INVALID_AMOUNT":             http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD":     http.StatusBadRequest,
	"INVALID_COMPANY":            http.StatusBadRequest,
	"INVALID_CUSTOMER":           http.StatusBadRequest,
	"INVALID_SALE":               http.StatusBadRequest,
	"INVALID_INSTALLMENT":        http.StatusBadRequest,
	"INVALID_INSTALLMENT_NUMBER": http.StatusBadRequest,
	"INVALID_DUE_DATE":           http.StatusBadRequest,

	// Messaging rejections
	"RATE_LIMITED": http.StatusTooManyRequests,
	"SEND_FAILED":  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
