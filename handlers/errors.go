package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/trainerbook/trainerbook/booking"
)

var kindStatus = map[booking.Kind]int{
	booking.KindValidation:   http.StatusBadRequest,
	booking.KindConflict:     http.StatusConflict,
	booking.KindUnauthorized: http.StatusUnauthorized,
	booking.KindForbidden:    http.StatusForbidden,
	booking.KindNotFound:     http.StatusNotFound,
	booking.KindInvalidState: http.StatusUnprocessableEntity,
}

// fail turns a manager error into an HTTP error. Unclassified errors are
// logged and hidden behind a generic 500.
func (h *Handler) fail(c echo.Context, err error) error {
	var be *booking.Error
	if errors.As(err, &be) {
		if status, ok := kindStatus[be.Kind]; ok {
			return echo.NewHTTPError(status, be.Message)
		}
	}
	h.log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
