package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trainerbook/trainerbook/booking"
	"github.com/trainerbook/trainerbook/db"
	mw "github.com/trainerbook/trainerbook/middleware"
	"github.com/trainerbook/trainerbook/models"
)

type programRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Content     string `json:"content"`
}

// Programs lists the published training programs ordered by title.
func (h *Handler) Programs(c echo.Context) error {
	programs := []models.Program{}
	err := h.db.NewSelect().Model(&programs).
		Relation("Trainer").
		OrderExpr("p.title ASC").
		Scan(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"programs": programs})
}

// CreateProgram publishes a program. Trainers only.
func (h *Handler) CreateProgram(c echo.Context) error {
	ctx := c.Request().Context()

	caller, err := h.store.UserByID(ctx, mw.CallerID(c))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return h.fail(c, err)
	}
	if err := booking.Authorize(caller, models.RoleTrainer); err != nil {
		return h.fail(c, err)
	}

	var req programRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" || strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title, description and content are required")
	}
	if req.PriceCents < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	p := &models.Program{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Content:     req.Content,
		TrainerID:   caller.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := h.db.NewInsert().Model(p).Exec(ctx); err != nil {
		return h.fail(c, err)
	}
	p.Trainer = caller
	return c.JSON(http.StatusCreated, echo.Map{"program": p})
}
