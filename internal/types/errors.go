package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// All components MUST use these constants instead of hardcoded strings.
const (
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	ErrCodeNotFoundRecipient ErrorCode = "not_found_recipient"

	ErrCodeDeliveryInvalid  ErrorCode = "delivery_invalid_request"
	ErrCodeDeliveryRejected ErrorCode = "delivery_rejected"

	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalRender     ErrorCode = "internal_render_error"

	ErrCodeUpstreamAuth        ErrorCode = "upstream_auth_failed"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamCircuitOpen ErrorCode = "upstream_circuit_open"
)

// AppError is the standard application error type.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// DeliveryError is returned by a Transport when a send does not succeed.
// StatusCode is the HTTP status of the connector response, or 0 when the
// request never produced a response.
type DeliveryError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("delivery failed: %s", e.Message)
	}
	return fmt.Sprintf("delivery failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Code maps the delivery failure onto the application error taxonomy.
func (e *DeliveryError) Code() ErrorCode {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrCodeUpstreamRateLimited
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrCodeUpstreamAuth
	case e.StatusCode == 0, e.StatusCode >= 500:
		return ErrCodeUpstreamUnavailable
	case e.StatusCode == http.StatusBadRequest:
		return ErrCodeDeliveryInvalid
	default:
		return ErrCodeDeliveryRejected
	}
}

// DeliveryStatus extracts the HTTP status carried by a DeliveryError anywhere
// in err's chain. ok is false when err carries no DeliveryError.
func DeliveryStatus(err error) (status int, ok bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.StatusCode, true
	}
	return 0, false
}
