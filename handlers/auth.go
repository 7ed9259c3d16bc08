package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/trainerbook/trainerbook/db"
	mw "github.com/trainerbook/trainerbook/middleware"
	"github.com/trainerbook/trainerbook/models"
)

// MinPasswordLength is the shortest password register accepts.
const MinPasswordLength = 8

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string      `json:"token"`
	UserID string      `json:"userId"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
}

// HashPassword validates password input and returns a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashedPassword), nil
}

// Register creates a client account and signs the caller in.
func (h *Handler) Register(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creds.Name = strings.TrimSpace(creds.Name)
	creds.Email = strings.TrimSpace(creds.Email)

	if creds.Name == "" || creds.Email == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}
	if !strings.Contains(creds.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email address")
	}
	if len(creds.Password) < MinPasswordLength {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := HashPassword(creds.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &models.User{
		Name:     creds.Name,
		Email:    creds.Email,
		Password: hash,
		Role:     models.RoleClient,
	}
	if err := h.store.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
		return h.fail(c, err)
	}

	return h.issue(c, http.StatusCreated, user)
}

// Login validates credentials and returns a JWT valid for the configured TTL.
func (h *Handler) Login(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.store.UserByEmail(c.Request().Context(), creds.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect email or password")
		}
		return h.fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect email or password")
	}

	return h.issue(c, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *Handler) Me(c echo.Context) error {
	user, err := h.store.UserByID(c.Request().Context(), mw.CallerID(c))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *Handler) issue(c echo.Context, status int, user *models.User) error {
	token, err := mw.IssueToken(user.ID, h.JWTKey, h.TokenTTL)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(status, tokenResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	})
}
