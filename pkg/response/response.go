package response

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"smartpen/pkg/apperr"
	"smartpen/pkg/logger"
)

// maxBody bounds request bodies; encoded canvases can be large.
const maxBody = 16 << 20

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Error writes err with the status its class maps to. Internal errors are
// logged and replaced by a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Sugar.Errorf("Handler: %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	JSON(w, status, errorBody{Error: apperr.Message(err)})
}

// Decode reads a JSON body into v. Malformed input is a validation error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: request body is empty", apperr.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body: %v", apperr.ErrValidation, err)
	}
	return nil
}
