package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every non-2xx answer.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusFor maps the domain error taxonomy onto HTTP. A reservation desync
// also unwraps to ErrInsufficientStock, so it is checked first.
func statusFor(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, errs.ErrReservationDesync):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInsufficientStock),
		errors.Is(err, errs.ErrIllegalTransition),
		errors.Is(err, errs.ErrObjectAlreadyExist),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict
	case errors.Is(err, errs.ErrPaymentFailed),
		errors.Is(err, errs.ErrShipmentFailed),
		errors.Is(err, errs.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorHandler replaces echo's default so that every failure, including
// routing errors, is answered with an Error body.
func (s *Server) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zapRequest(c, status, err)...)
		if status == http.StatusInternalServerError {
			message = http.StatusText(status)
		}
	}

	if writeErr := c.JSON(status, Error{Code: status, Message: message}); writeErr != nil {
		s.log.Warn("error response not written", zapRequest(c, status, writeErr)...)
	}
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
