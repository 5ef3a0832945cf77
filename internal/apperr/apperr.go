// Package apperr defines the error taxonomy shared by providers and the HTTP
// transport. Every error carries a platform error code so the boundary can map
// it to a status without knowing which component produced it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	platformerrors "github.com/jmgilman/go/errors"
)

var (
	ErrInvalidPayload     = platformerrors.New(platformerrors.CodeInvalidInput, "invalid payload")
	ErrUsernameTaken      = platformerrors.New(platformerrors.CodeConflict, "username is already taken")
	ErrEmailTaken         = platformerrors.New(platformerrors.CodeConflict, "email is already in use")
	ErrInvalidCredentials = platformerrors.New(platformerrors.CodeUnauthorized, "invalid credentials")
	ErrUnauthorized       = platformerrors.New(platformerrors.CodeUnauthorized, "unauthorized")
	ErrNoSessionCookie    = platformerrors.New(platformerrors.CodeUnauthorized, "no session cookie")
	ErrEmailNotConfirmed  = platformerrors.New(platformerrors.CodeInvalidInput, "email confirmation failed")
	ErrInvalidCompletion  = platformerrors.New(platformerrors.CodeInvalidInput, "completion time precedes creation time")
	ErrTodoNotFound       = platformerrors.New(platformerrors.CodeNotFound, "todo not found")
	ErrFileNotFound       = platformerrors.New(platformerrors.CodeNotFound, "file not found")
)

// Database wraps a persistence failure.
func Database(err error, msg string) error {
	return platformerrors.Wrap(err, platformerrors.CodeDatabase, msg)
}

// Conflict wraps a unique constraint violation.
func Conflict(err error, msg string) error {
	return platformerrors.Wrap(err, platformerrors.CodeConflict, msg)
}

// Network wraps a failure talking to an object store, SMTP server or cache.
func Network(err error, msg string) error {
	return platformerrors.Wrap(err, platformerrors.CodeNetwork, msg)
}

// Internal wraps failures that are neither caller mistakes nor upstream outages.
func Internal(err error, msg string) error {
	return platformerrors.Wrap(err, platformerrors.CodeInternal, msg)
}

// TodoNotFound returns ErrTodoNotFound annotated with the missing id.
func TodoNotFound(id fmt.Stringer) error {
	return fmt.Errorf("todo %s: %w", id, ErrTodoNotFound)
}

// FileNotFound returns ErrFileNotFound annotated with the object name.
func FileNotFound(name string) error {
	return fmt.Errorf("file %q: %w", name, ErrFileNotFound)
}

// Code returns the platform error code carried by err.
func Code(err error) platformerrors.ErrorCode {
	return platformerrors.GetCode(err)
}

// Status maps err onto an HTTP status code.
func Status(err error) int {
	// Wrong credentials are reported as a bad request, never revealing which
	// factor failed.
	if errors.Is(err, ErrInvalidCredentials) {
		return http.StatusBadRequest
	}
	switch platformerrors.GetCode(err) {
	case platformerrors.CodeInvalidInput, platformerrors.CodeConflict, platformerrors.CodeAlreadyExists:
		return http.StatusBadRequest
	case platformerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case platformerrors.CodeForbidden:
		return http.StatusForbidden
	case platformerrors.CodeNotFound:
		return http.StatusNotFound
	case platformerrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to a client. Upstream
// failures collapse to a generic text.
func PublicMessage(err error) string {
	if Status(err) >= http.StatusInternalServerError {
		return "internal server error"
	}
	var platformErr platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Message()
	}
	return err.Error()
}
