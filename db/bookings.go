package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/trainerbook/trainerbook/models"
)

// StatusChange describes a conditional booking status update.
type StatusChange struct {
	// From restricts the update to bookings currently in one of these states; empty means any.
	From        []models.Status
	To          models.Status
	At          time.Time
	ConfirmedAt *time.Time
	RejectedAt  *time.Time
	Notes       *string
}

// InsertBooking stores b in a single statement. The partial unique index on
// (trainer_id, timeslot) turns a double booking into ErrSlotTaken.
func (s *Store) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Timeslot = b.Timeslot.UTC()

	if _, err := s.db.NewInsert().Model(b).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// BookingByID loads a booking with client and trainer expanded.
func (s *Store) BookingByID(ctx context.Context, id string) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b := &models.Booking{}
	err := s.db.NewSelect().Model(b).
		Relation("Client").
		Relation("Trainer").
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select booking: %w", err)
	}
	return b, nil
}

// BookingsForClient returns every booking owned by the client, earliest first.
func (s *Store) BookingsForClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := s.db.NewSelect().Model(&bookings).
		Relation("Trainer").
		Where("b.client_id = ?", clientID).
		OrderExpr("b.timeslot ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select client bookings: %w", err)
	}
	return bookings, nil
}

// BookingsForTrainer returns every booking owned by the trainer, earliest first.
func (s *Store) BookingsForTrainer(ctx context.Context, trainerID string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := s.db.NewSelect().Model(&bookings).
		Relation("Client").
		Where("b.trainer_id = ?", trainerID).
		OrderExpr("b.timeslot ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select trainer bookings: %w", err)
	}
	return bookings, nil
}

// ActiveTimeslots returns the timeslots of non-cancelled bookings for the
// trainer in [from, to), ascending.
func (s *Store) ActiveTimeslots(ctx context.Context, trainerID string, from, to time.Time) ([]time.Time, error) {
	var slots []time.Time
	err := s.db.NewSelect().
		Model((*models.Booking)(nil)).
		Column("timeslot").
		Where("trainer_id = ?", trainerID).
		Where("timeslot >= ?", from.UTC()).
		Where("timeslot < ?", to.UTC()).
		Where("status <> ?", models.StatusCancelled).
		OrderExpr("timeslot ASC").
		Scan(ctx, &slots)
	if err != nil {
		return nil, fmt.Errorf("select timeslots: %w", err)
	}
	return slots, nil
}

// ChangeStatus applies ch to booking id. It reports false when no row matched,
// i.e. the booking is gone or no longer in one of ch.From.
func (s *Store) ChangeStatus(ctx context.Context, id string, ch StatusChange) (bool, error) {
	q := s.db.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", ch.To).
		Set("updated_at = ?", ch.At.UTC()).
		Where("id = ?", id)

	if ch.ConfirmedAt != nil {
		q = q.Set("confirmed_at = ?", ch.ConfirmedAt.UTC())
	}
	if ch.RejectedAt != nil {
		q = q.Set("rejected_at = ?", ch.RejectedAt.UTC())
	}
	if ch.Notes != nil {
		q = q.Set("notes = ?", *ch.Notes)
	}
	if len(ch.From) > 0 {
		q = q.Where("status IN (?)", bun.In(ch.From))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	return n > 0, nil
}

// CountBookings counts the trainer's bookings in the given status.
func (s *Store) CountBookings(ctx context.Context, trainerID string, status models.Status) (int, error) {
	n, err := s.db.NewSelect().
		Model((*models.Booking)(nil)).
		Where("trainer_id = ?", trainerID).
		Where("status = ?", status).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

// DeleteCancelled removes the client's cancelled bookings and returns how many went.
func (s *Store) DeleteCancelled(ctx context.Context, clientID string) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Booking)(nil)).
		Where("client_id = ?", clientID).
		Where("status = ?", models.StatusCancelled).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete cancelled bookings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete cancelled bookings: %w", err)
	}
	return int(n), nil
}
