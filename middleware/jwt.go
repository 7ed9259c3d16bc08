package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/models"
)

// Context keys set by JWT.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// ErrBadToken is returned by Verify for a token that parses but carries no user.
var ErrBadToken = errors.New("invalid token")

// Claims extends jwt.RegisteredClaims with the user id.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// UserFinder loads the account a token was issued to.
type UserFinder interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// IssueToken signs an HS256 token for userID that expires after ttl.
func IssueToken(userID string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Verify parses raw and checks its signature and expiry.
func Verify(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, ErrBadToken
	}
	return claims, nil
}

// JWT returns an Echo middleware that validates the Authorization bearer token
// and stores the caller's id and role in the context. Role rules live elsewhere.
func JWT(key []byte, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims, err := Verify(strings.TrimSpace(raw), key)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			user, err := users.UserByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				return fmt.Errorf("load caller: %w", err)
			}

			c.Set(UserIDKey, user.ID)
			c.Set(RoleKey, user.Role)
			return next(c)
		}
	}
}

// CallerID returns the authenticated user id, or "" outside JWT-protected routes.
func CallerID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
