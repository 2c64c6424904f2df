package errors

import (
	stderrors "errors"
	"fmt"
)

// Is re-exports the standard library check so callers holding this
// package don't need a second errors import.
var Is = stderrors.Is

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnauthorized       = fmt.Errorf("operation requires authentication")
	ErrAlreadyConnected   = fmt.Errorf("identity already has a live connection")
	ErrRoomNotFound       = fmt.Errorf("room was never created")
	ErrValidation         = fmt.Errorf("invalid message content")
	ErrPersistence        = fmt.Errorf("storage operation failed")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

// Code maps a protocol-level error to the wire code carried by error
// events. Unknown errors are reported as internal.
func Code(err error) string {
	switch {
	case Is(err, ErrUnauthorized):
		return "unauthorized"
	case Is(err, ErrAlreadyConnected):
		return "already_connected"
	case Is(err, ErrRoomNotFound):
		return "room_not_found"
	case Is(err, ErrValidation):
		return "validation_error"
	case Is(err, ErrPersistence):
		return "persistence_error"
	case Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case Is(err, ErrUserAlreadyExists):
		return "user_exists"
	default:
		return "internal"
	}
}
