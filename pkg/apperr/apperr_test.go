package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: title is required", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("note: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: username already registered", ErrConflict), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), "error: %v", c.err)
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: password authentication failed")))
	assert.Equal(t, "validation error: title is required", Message(fmt.Errorf("%w: title is required", ErrValidation)))
}
