package http

import (
	"errors"
	"net/http"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string            `json:"error"`
	Field     string            `json:"field,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Status    string            `json:"status,omitempty"`
	Operation string            `json:"operation,omitempty"`
}

// writeError maps a service error onto an HTTP status and body
func writeError(c echo.Context, err error) error {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		stateErr      *core.InvalidStateError
		conflictErr   *core.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Error(),
			Field: validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &stateErr):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:     stateErr.Error(),
			Status:    string(stateErr.Current),
			Operation: stateErr.Operation,
		})
	case errors.As(err, &conflictErr):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: conflictErr.Error()})
	}

	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
