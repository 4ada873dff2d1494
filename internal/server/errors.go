package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"feedhost/internal/domain"
)

// internalErrorKey carries an unexpected error from writeError to the
// request logger.
const internalErrorKey = "internal_error"

// ErrorResponse is the structured body returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps domain errors onto HTTP statuses. Unexpected errors become
// an opaque 500; their details stay in the log, not the response.
func writeError(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: err.Error(),
		})
	default:
		c.Set(internalErrorKey, err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal",
			Message: "internal server error",
		})
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
	})
}
