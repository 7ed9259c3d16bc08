package db

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken is returned when a live booking already holds the trainer's timeslot.
	ErrSlotTaken = errors.New("timeslot already booked")
	// ErrDuplicate is returned when a unique column (e.g. user email) already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the bun-backed persistence layer for users and bookings.
type Store struct {
	db *bun.DB
}

// NewStore wraps an open bun connection.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for handlers that query directly.
func (s *Store) DB() *bun.DB {
	return s.db
}

// isUniqueViolation recognises unique constraint failures from both supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}
