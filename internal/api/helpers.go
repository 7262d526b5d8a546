package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/tokenloop/internal/errkind"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, ErrorBody{Message: msg, Type: "invalid_request_error"})
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, ErrorBody{Message: msg, Type: "not_found_error"})
}

func writeError(c *echo.Context, status int, body ErrorBody) error {
	return c.JSON(status, map[string]any{"error": body})
}

// classify maps a generation failure to an HTTP status and error body.
func classify(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, errkind.ErrConfigValidation):
		return http.StatusBadRequest, ErrorBody{Message: err.Error(), Type: "invalid_request_error"}
	case errors.Is(err, ErrModelNotFound):
		return http.StatusNotFound, ErrorBody{Message: err.Error(), Type: "not_found_error", Code: "model_not_found"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorBody{Message: err.Error(), Type: "server_error", Code: "cancelled"}
	case errors.Is(err, errkind.ErrModelInference):
		return http.StatusInternalServerError, ErrorBody{Message: err.Error(), Type: "server_error", Code: "model_inference"}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: err.Error(), Type: "server_error"}
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func newGenerationID() string {
	return "gen_" + uuid.NewString()
}
