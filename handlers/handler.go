package handlers

import (
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/trainerbook/trainerbook/booking"
	"github.com/trainerbook/trainerbook/db"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db       *bun.DB
	store    *db.Store
	bookings *booking.Manager
	log      *zap.Logger

	JWTKey   []byte
	TokenTTL time.Duration
}

// New creates a Handler over the database, the booking manager and the JWT settings.
func New(bdb *bun.DB, bookings *booking.Manager, jwtKey []byte, tokenTTL time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		db:       bdb,
		store:    db.NewStore(bdb),
		bookings: bookings,
		log:      log,
		JWTKey:   jwtKey,
		TokenTTL: tokenTTL,
	}
}
