package sessions

import (
	"errors"
	"fmt"
)

// SessionError represents a domain-specific error.
type SessionError struct {
	Code    string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is matches any *SessionError with the same code, so callers can write
// errors.Is(err, sessions.ErrNotFound).
func (e *SessionError) Is(target error) bool {
	var t *SessionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeAlreadyRunning   = "ALREADY_RUNNING"
	ErrCodeSpawnFailed      = "SPAWN_FAILED"
	ErrCodeResolutionFailed = "RESOLUTION_FAILED"
	ErrCodeAbnormalExit     = "ABNORMAL_EXIT"
	ErrCodeStopFailed       = "STOP_FAILED"
)

// Sentinels for errors.Is.
var (
	ErrNotFound         = &SessionError{Code: ErrCodeNotFound}
	ErrInvalidState     = &SessionError{Code: ErrCodeInvalidState}
	ErrInvalidConfig    = &SessionError{Code: ErrCodeInvalidConfig}
	ErrAlreadyRunning   = &SessionError{Code: ErrCodeAlreadyRunning}
	ErrSpawnFailed      = &SessionError{Code: ErrCodeSpawnFailed}
	ErrResolutionFailed = &SessionError{Code: ErrCodeResolutionFailed}
	ErrAbnormalExit     = &SessionError{Code: ErrCodeAbnormalExit}
	ErrStopFailed       = &SessionError{Code: ErrCodeStopFailed}
)

// NewSessionError creates a new session error
func NewSessionError(code, message string, cause error) *SessionError {
	return &SessionError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Code returns the error code of err, or "" if err is not a SessionError.
func Code(err error) string {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func notFound(id string) *SessionError {
	return NewSessionError(ErrCodeNotFound, fmt.Sprintf("session %s not found", id), nil)
}
