package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trainerbook/trainerbook/booking"
	mw "github.com/trainerbook/trainerbook/middleware"
)

type createBookingRequest struct {
	Timeslot string `json:"timeslot"`
	Duration int    `json:"duration"`
	Notes    string `json:"notes"`
}

type rejectRequest struct {
	Reason          string `json:"reason"`
	RejectionReason string `json:"rejectionReason"`
}

// CreateBooking reserves a timeslot with the trainer.
func (h *Handler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.bookings.Create(c.Request().Context(), mw.CallerID(c), booking.CreateInput{
		Timeslot: req.Timeslot,
		Duration: req.Duration,
		Notes:    req.Notes,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}

// Availability lists the open slots of the trainer on the :date calendar day.
func (h *Handler) Availability(c echo.Context) error {
	date := c.Param("date")
	day, err := h.bookings.ParseDate(date)
	if err != nil {
		return h.fail(c, err)
	}

	ctx := c.Request().Context()
	trainer, err := h.bookings.Trainer(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	slots, err := h.bookings.AvailableSlots(ctx, day, trainer.ID)
	if err != nil {
		return h.fail(c, err)
	}
	if slots == nil {
		slots = []time.Time{}
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "availableSlots": slots})
}

// MyBookings lists the caller's bookings as a client.
func (h *Handler) MyBookings(c echo.Context) error {
	list, err := h.bookings.ListForClient(c.Request().Context(), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// TrainerBookings lists every booking assigned to the calling trainer.
func (h *Handler) TrainerBookings(c echo.Context) error {
	list, err := h.bookings.ListForTrainer(c.Request().Context(), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// ConfirmBooking confirms a pending booking for its trainer.
func (h *Handler) ConfirmBooking(c echo.Context) error {
	b, err := h.bookings.Confirm(c.Request().Context(), c.Param("id"), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// RejectBooking accepts an optional {"reason"} body; "rejectionReason" is read
// when reason is empty.
func (h *Handler) RejectBooking(c echo.Context) error {
	var req rejectRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	reason := req.Reason
	if reason == "" {
		reason = req.RejectionReason
	}

	b, err := h.bookings.Reject(c.Request().Context(), c.Param("id"), mw.CallerID(c), reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// CancelBooking cancels a booking for its client or trainer.
func (h *Handler) CancelBooking(c echo.Context) error {
	b, err := h.bookings.Cancel(c.Request().Context(), c.Param("id"), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// PendingCount reports how many bookings await the trainer.
func (h *Handler) PendingCount(c echo.Context) error {
	n, err := h.bookings.PendingCount(c.Request().Context(), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pendingCount": n})
}

// ClearCancelled deletes the caller's cancelled bookings.
func (h *Handler) ClearCancelled(c echo.Context) error {
	n, err := h.bookings.ClearCancelled(c.Request().Context(), mw.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
