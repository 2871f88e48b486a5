package core

import "errors"

// Error codes for domain errors surfaced to clients.
const (
	ErrCodeNameTaken     = "name_taken"
	ErrCodeInvalidName   = "invalid_name"
	ErrCodeAlreadyJoined = "already_registered"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeRateLimited   = "rate_limited"
)

var (
	ErrDuplicateName     = errors.New("display name already in use")
	ErrInvalidName       = errors.New("invalid display name")
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrNotRegistered     = errors.New("connection not registered")
	ErrNotFound          = errors.New("not found")
	ErrMalformed         = errors.New("malformed request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// registrationError maps a Registry.Register failure to the error shown to the client.
func registrationError(err error) *CoreError {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return coreError(ErrCodeNameTaken, "This username is already taken. Please choose another one.")
	case errors.Is(err, ErrInvalidName):
		return coreError(ErrCodeInvalidName, "Username is empty or too long.")
	case errors.Is(err, ErrAlreadyRegistered):
		return coreError(ErrCodeAlreadyJoined, "This connection already has a username.")
	default:
		return coreError(ErrCodeBadRequest, "Could not join.")
	}
}
