package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for missing resources and for resources owned by
	// another user alike.
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

// HTTPStatus maps an error from the service layer to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a caller. Internal errors are not
// echoed back.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
