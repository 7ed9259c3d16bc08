package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/trainerbook/trainerbook/middleware"
)

// Routes mounts the JSON API under /api plus /metrics and /healthz.
// limit guards register and login.
func (h *Handler) Routes(e *echo.Echo, limit echo.MiddlewareFunc) {
	auth := mw.JWT(h.JWTKey, h.store)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", h.Healthz)

	api := e.Group("/api", mw.Metrics())

	// Public
	api.POST("/auth/register", h.Register, limit)
	api.POST("/auth/login", h.Login, limit)
	api.GET("/programs", h.Programs)
	api.GET("/bookings/availability/:date", h.Availability)

	// Protected – require valid JWT in Authorization header
	api.GET("/auth/me", h.Me, auth)
	api.POST("/programs", h.CreateProgram, auth)

	b := api.Group("/bookings", auth)
	b.POST("", h.CreateBooking)
	b.GET("/mine", h.MyBookings)
	b.GET("/trainer", h.TrainerBookings)
	b.GET("/pending-count", h.PendingCount)
	b.PUT("/:id/confirm", h.ConfirmBooking)
	b.PUT("/:id/reject", h.RejectBooking)
	b.PUT("/:id/cancel", h.CancelBooking)
	b.DELETE("/cancelled", h.ClearCancelled)
}

// Healthz reports whether the database answers.
func (h *Handler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
