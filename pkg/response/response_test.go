package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartpen/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "n1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"n1"}`, rec.Body.String())
}

func TestError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notes/x", nil)

	rec := httptest.NewRecorder()
	Error(rec, req, fmt.Errorf("%w: note", apperr.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found: note"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, req, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, req, apperr.ErrUnauthorized)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestDecode(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"A"}`))
	require.NoError(t, Decode(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "A", v.Title)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	assert.ErrorIs(t, Decode(httptest.NewRecorder(), req, &v), apperr.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, Decode(httptest.NewRecorder(), req, &v), apperr.ErrValidation)
}
