package realtime

import (
	"fmt"
)

// Error represents an error reported by the remote API or the transport.
type Error struct {
	Code       string `json:"code,omitempty"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	EventID    string `json:"event_id,omitempty"`
	HTTPStatus int    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}

// NewConnectionError creates an error for a failed connection attempt.
func NewConnectionError(message string, httpStatus int) *Error {
	return &Error{
		Code:       "connection_failed",
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewProtocolError creates an error for an unexpected wire message.
func NewProtocolError(message string) *Error {
	return &Error{
		Code:    "protocol_error",
		Message: message,
	}
}
