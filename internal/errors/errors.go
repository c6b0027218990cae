package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource conflict")
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternalServer      = errors.New("internal server error")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")

	// Business errors
	ErrRouteUnavailable    = errors.New("no route found")
	ErrOverlappingTrips    = errors.New("overlapping trips")
	ErrDuplicateRequest    = errors.New("request already exists for this trip")
	ErrTripFull            = errors.New("trip is full")
	ErrRequestTaken        = errors.New("another request has already been accepted")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrNotAtDestination    = errors.New("driver is not at the destination")
	ErrNotAtDropoff        = errors.New("driver is not at the drop-off point")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrNotADriver          = errors.New("user is not a registered driver")
	ErrAlreadyRated        = errors.New("trip already rated")
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Conflict(code, message string) *APIError {
	return NewAPIError(code, message, http.StatusConflict)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func IdempotencyConflict() *APIError {
	return NewAPIError("idempotency_conflict", "idempotency key already used with different request", http.StatusConflict)
}

func NoRouteFound() *APIError {
	return NewAPIError("no_route_found", "no drivable route between the given locations", http.StatusNotFound)
}

func OverlappingTrips() *APIError {
	return NewAPIError("overlapping_trips", "the trip window overlaps an existing commitment", http.StatusConflict)
}

func DuplicateRequest() *APIError {
	return NewAPIError("duplicate_request", "a request for this trip already exists", http.StatusConflict)
}

func TripFull() *APIError {
	return NewAPIError("trip_full", "this trip already has an accepted rider", http.StatusConflict)
}

func RequestTaken() *APIError {
	return NewAPIError("request_taken", "another request has already been accepted for this trip", http.StatusConflict)
}

func InvalidTransition(from, to string) *APIError {
	return NewAPIError("invalid_transition", fmt.Sprintf("cannot transition from %s to %s", from, to), http.StatusBadRequest)
}

func PaymentFailed() *APIError {
	return NewAPIError("payment_failed", "payment could not be processed", http.StatusPaymentRequired)
}
