package ierr

import (
	"encoding/json"
	"errors"
)

type ErrorCode string

const (
	ErrorCodeInvalidArgument    ErrorCode = "InvalidArgument"
	ErrorCodeNotFound           ErrorCode = "NotFound"
	ErrorCodeFailedPrecondition ErrorCode = "FailedPrecondition"
	ErrorCodePermissionDenied   ErrorCode = "PermissionDenied"
	ErrorCodeUnauthenticated    ErrorCode = "Unauthenticated"
	ErrorCodeInternal           ErrorCode = "Internal"

	// Reported back to the connection that sent a join without an identity.
	ErrorCodeInvalidJoinRequest ErrorCode = "InvalidJoinRequest"
	// A producer called Deliver with malformed arguments. Always a bug upstream.
	ErrorCodeInvalidDeliveryRequest ErrorCode = "InvalidDeliveryRequest"
)

type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func New(code ErrorCode, cause error) Error {
	return Error{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.cause.Error()
}

func (e Error) Unwrap() error {
	return e.cause
}

// HasCode reports whether err is, or wraps, an Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var target Error
	if !errors.As(err, &target) {
		return false
	}

	return target.Code == code
}
