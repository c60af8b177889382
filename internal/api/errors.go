package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/relaycast/internal/sessions"
)

var errInvalidAuthType = errors.New("unsupported authentication type")

// mapSessionError maps session errors to HTTP errors.
func mapSessionError(err error) error {
	var sessErr *sessions.SessionError
	if !errors.As(err, &sessErr) {
		return huma.Error500InternalServerError("internal server error", err)
	}

	switch sessErr.Code {
	case sessions.ErrCodeNotFound:
		return huma.Error404NotFound(sessErr.Message)
	case sessions.ErrCodeInvalidConfig:
		return huma.Error422UnprocessableEntity(sessErr.Message, detailErrors(sessErr)...)
	case sessions.ErrCodeInvalidState, sessions.ErrCodeAlreadyRunning:
		return huma.Error409Conflict(sessErr.Message)
	case sessions.ErrCodeResolutionFailed, sessions.ErrCodeSpawnFailed:
		return huma.Error502BadGateway(sessErr.Message, detailErrors(sessErr)...)
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}

// detailErrors flattens a joined cause into one error per detail entry.
func detailErrors(err *sessions.SessionError) []error {
	if err.Cause == nil {
		return nil
	}
	if joined, ok := err.Cause.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err.Cause}
}
