package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-order-service/internal/logger"
	"github.com/iliyamo/concert-order-service/internal/order"
)

// errorResponse is the JSON body of every failed order request.
type errorResponse struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	Conflicting []uint64 `json:"conflicting,omitempty"`
	Retryable   bool     `json:"retryable,omitempty"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(k order.Kind) int {
	switch k {
	case order.KindValidation:
		return http.StatusBadRequest
	case order.KindNotFound:
		return http.StatusNotFound
	case order.KindExpired:
		return http.StatusGone
	case order.KindForbidden:
		return http.StatusForbidden
	case order.KindConflict:
		return http.StatusConflict
	case order.KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err.  Internal and dependency failures are logged and
// answered with a generic message so storage or broker details do not
// leak to clients.
func writeError(c echo.Context, err error) error {
	kind := order.KindOf(err)
	body := errorResponse{Error: kind.String()}
	switch kind {
	case order.KindInternal:
		logger.Ctx(c.Request().Context()).Error().Err(err).Msg("order request failed")
		body.Message = "internal error"
	case order.KindDependency:
		logger.Ctx(c.Request().Context()).Warn().Err(err).Msg("order dependency unavailable")
		body.Message = "service temporarily unavailable"
	default:
		var oe *order.Error
		if errors.As(err, &oe) {
			body.Message = oe.Message
			body.Conflicting = oe.Seats
			body.Retryable = oe.Retryable
		}
	}
	return c.JSON(statusFor(kind), body)
}
