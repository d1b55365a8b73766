// Package httpx holds the JSON request/response helpers shared by handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"courseconnect/internal/apperr"
	"courseconnect/internal/logging"
)

const (
	maxBodyBytes    = 10 << 20 // base64 images ride in the body
	internalMessage = "Internal Server Error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields,
// trailing data and oversized bodies as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("Request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required")
		default:
			return apperr.Validation("Invalid request body")
		}
	}
	if dec.More() {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err into the JSON error shape. Server-side failures
// are logged; their details never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := StatusOf(err)
	msg := apperr.PublicMessage(err, internalMessage)

	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if !errors.Is(err, apperr.ErrDependency) {
			msg = internalMessage
		}
	}

	WriteJSON(w, status, ErrorResponse{Message: msg})
}
