// Package booking implements the booking lifecycle: slot availability, creation,
// trainer confirmation/rejection, cancellation, and the authorization rules around them.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/metrics"
	"github.com/trainerbook/trainerbook/models"
)

// CancelNotice is the minimum time left before a session for it to be cancelled.
const CancelNotice = 24 * time.Hour

// Store is the persistence the Manager needs. *db.Store satisfies it.
type Store interface {
	UserLookup
	InsertBooking(ctx context.Context, b *models.Booking) error
	BookingByID(ctx context.Context, id string) (*models.Booking, error)
	BookingsForClient(ctx context.Context, clientID string) ([]models.Booking, error)
	BookingsForTrainer(ctx context.Context, trainerID string) ([]models.Booking, error)
	ActiveTimeslots(ctx context.Context, trainerID string, from, to time.Time) ([]time.Time, error)
	ChangeStatus(ctx context.Context, id string, ch db.StatusChange) (bool, error)
	CountBookings(ctx context.Context, trainerID string, status models.Status) (int, error)
	DeleteCancelled(ctx context.Context, clientID string) (int, error)
}

// SlotCache caches the taken instants of a trainer's day. Taken reports the
// day's generation; Store must drop the write once Invalidate has moved it.
type SlotCache interface {
	Taken(ctx context.Context, trainerID string, day time.Time) (slots []time.Time, gen int64, ok bool, err error)
	Store(ctx context.Context, trainerID string, day time.Time, gen int64, slots []time.Time) error
	Invalidate(ctx context.Context, trainerID string, day time.Time) error
}

type noCache struct{}

func (noCache) Taken(context.Context, string, time.Time) ([]time.Time, int64, bool, error) {
	return nil, 0, false, nil
}
func (noCache) Store(context.Context, string, time.Time, int64, []time.Time) error { return nil }
func (noCache) Invalidate(context.Context, string, time.Time) error              { return nil }

// Manager owns the booking state machine.
type Manager struct {
	store   Store
	trainer TrainerResolver
	cache   SlotCache
	hours   []int
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCache enables the taken-slot cache.
func WithCache(c SlotCache) Option {
	return func(m *Manager) {
		if c != nil {
			m.cache = c
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithWorkingHours sets the slot template and the timezone its hours are read in.
func WithWorkingHours(hours []int, loc *time.Location) Option {
	return func(m *Manager) {
		m.hours = normalizeHours(hours)
		if loc != nil {
			m.loc = loc
		}
	}
}

// New builds a Manager over store, resolving the trainer through trainer.
func New(store Store, trainer TrainerResolver, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		trainer: trainer,
		cache:   noCache{},
		hours:   normalizeHours(nil),
		loc:     time.UTC,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateInput is a client's booking request. Timeslot is parsed by the Manager.
type CreateInput struct {
	Timeslot string
	Duration int
	Notes    string
}

// Trainer returns the trainer new bookings are assigned to.
func (m *Manager) Trainer(ctx context.Context) (*models.User, error) {
	return m.trainer.ResolveTrainer(ctx)
}

// ParseTimeslot accepts RFC 3339 instants, or wall-clock times without an
// offset which are read in the slot timezone.
func (m *Manager) ParseTimeslot(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, newError(KindValidation, "timeslot is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, m.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newError(KindValidation, "invalid timeslot date format")
}

// Create reserves a timeslot for clientID with the configured trainer.
func (m *Manager) Create(ctx context.Context, clientID string, in CreateInput) (b *models.Booking, err error) {
	defer func() { m.record("create", err) }()

	slot, err := m.ParseTimeslot(in.Timeslot)
	if err != nil {
		return nil, err
	}
	duration := in.Duration
	if duration == 0 {
		duration = models.DefaultDuration
	}
	if !models.ValidDuration(duration) {
		return nil, newError(KindValidation, "duration must be one of 30, 45, 60 or 90 minutes")
	}
	notes := in.Notes
	if utf8.RuneCountInString(notes) > models.MaxNotesLength {
		return nil, newError(KindValidation, "notes must be at most %d characters", models.MaxNotesLength)
	}

	client, err := m.caller(ctx, clientID)
	if err != nil {
		return nil, err
	}
	trainer, err := m.trainer.ResolveTrainer(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	b = &models.Booking{
		ID:        uuid.NewString(),
		ClientID:  client.ID,
		TrainerID: trainer.ID,
		Timeslot:  slot.UTC(),
		Duration:  duration,
		Notes:     notes,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertBooking(ctx, b); err != nil {
		if errors.Is(err, db.ErrSlotTaken) {
			return nil, newError(KindConflict, "time slot already booked")
		}
		return nil, err
	}
	m.invalidate(ctx, trainer.ID, b.Timeslot)

	b.Client = client
	b.Trainer = trainer
	m.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("client_id", client.ID),
		zap.Time("timeslot", b.Timeslot),
	)
	return b, nil
}

// ListForClient returns the client's bookings, earliest first, trainer expanded.
func (m *Manager) ListForClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	return m.store.BookingsForClient(ctx, clientID)
}

// ListForTrainer returns the calling trainer's bookings, earliest first, client expanded.
func (m *Manager) ListForTrainer(ctx context.Context, callerID string) ([]models.Booking, error) {
	caller, err := m.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, models.RoleTrainer); err != nil {
		return nil, err
	}
	return m.store.BookingsForTrainer(ctx, caller.ID)
}

// PendingCount counts the calling trainer's pending bookings.
func (m *Manager) PendingCount(ctx context.Context, callerID string) (int, error) {
	caller, err := m.caller(ctx, callerID)
	if err != nil {
		return 0, err
	}
	if err := Authorize(caller, models.RoleTrainer); err != nil {
		return 0, err
	}
	return m.store.CountBookings(ctx, caller.ID, models.StatusPending)
}

// Confirm moves a pending booking to confirmed. Only the owning trainer may do so.
func (m *Manager) Confirm(ctx context.Context, bookingID, callerID string) (b *models.Booking, err error) {
	defer func() { m.record("confirm", err) }()

	b, caller, err := m.load(ctx, bookingID, callerID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, models.RoleTrainer, b.TrainerID); err != nil {
		return nil, err
	}
	if b.Status != models.StatusPending {
		return nil, newError(KindInvalidState, "only pending bookings can be confirmed")
	}

	now := m.now().UTC()
	ok, err := m.store.ChangeStatus(ctx, b.ID, db.StatusChange{
		From:        []models.Status{models.StatusPending},
		To:          models.StatusConfirmed,
		At:          now,
		ConfirmedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindInvalidState, "only pending bookings can be confirmed")
	}

	b.Status = models.StatusConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	m.log.Info("booking confirmed", zap.String("booking_id", b.ID), zap.String("trainer_id", caller.ID))
	return b, nil
}

// Reject cancels a pending booking on the trainer's behalf, appending reason to the notes.
func (m *Manager) Reject(ctx context.Context, bookingID, callerID, reason string) (b *models.Booking, err error) {
	defer func() { m.record("reject", err) }()

	b, caller, err := m.load(ctx, bookingID, callerID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, models.RoleTrainer, b.TrainerID); err != nil {
		return nil, err
	}
	if b.Status != models.StatusPending {
		return nil, newError(KindInvalidState, "only pending bookings can be rejected")
	}

	now := m.now().UTC()
	notes := RejectionNotes(b.Notes, reason)
	ok, err := m.store.ChangeStatus(ctx, b.ID, db.StatusChange{
		From:       []models.Status{models.StatusPending},
		To:         models.StatusCancelled,
		At:         now,
		RejectedAt: &now,
		Notes:      &notes,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindInvalidState, "only pending bookings can be rejected")
	}
	m.invalidate(ctx, b.TrainerID, b.Timeslot)

	b.Status = models.StatusCancelled
	b.RejectedAt = &now
	b.UpdatedAt = now
	b.Notes = notes
	m.log.Info("booking rejected", zap.String("booking_id", b.ID), zap.String("trainer_id", caller.ID))
	return b, nil
}

// Cancel cancels a booking for its client or trainer, provided the session is
// at least CancelNotice away.
func (m *Manager) Cancel(ctx context.Context, bookingID, callerID string) (b *models.Booking, err error) {
	defer func() { m.record("cancel", err) }()

	b, caller, err := m.load(ctx, bookingID, callerID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, "", b.ClientID, b.TrainerID); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if b.Timeslot.Sub(now) < CancelNotice {
		return nil, newError(KindInvalidState, "cannot cancel within 24 hours of the session")
	}

	ok, err := m.store.ChangeStatus(ctx, b.ID, db.StatusChange{
		To: models.StatusCancelled,
		At: now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindNotFound, "booking not found")
	}
	m.invalidate(ctx, b.TrainerID, b.Timeslot)

	b.Status = models.StatusCancelled
	b.UpdatedAt = now
	m.log.Info("booking cancelled", zap.String("booking_id", b.ID), zap.String("by", caller.ID))
	return b, nil
}

// ClearCancelled deletes the caller's cancelled bookings (as client) and returns the count.
func (m *Manager) ClearCancelled(ctx context.Context, callerID string) (n int, err error) {
	defer func() { m.record("clear", err) }()

	n, err = m.store.DeleteCancelled(ctx, callerID)
	if err != nil {
		return 0, err
	}
	m.log.Info("cancelled bookings cleared", zap.String("client_id", callerID), zap.Int("deleted", n))
	return n, nil
}

// RejectionNotes appends the rejection reason to notes as its own paragraph.
func RejectionNotes(notes, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return notes
	}
	line := "Rejection reason: " + reason
	if notes == "" {
		return line
	}
	return notes + "\n\n" + line
}

// caller re-reads the caller from the store so role checks never use stale data.
func (m *Manager) caller(ctx context.Context, id string) (*models.User, error) {
	u, err := m.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(KindUnauthorized, "unknown caller")
		}
		return nil, err
	}
	return u, nil
}

func (m *Manager) load(ctx context.Context, bookingID, callerID string) (*models.Booking, *models.User, error) {
	caller, err := m.caller(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	b, err := m.store.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, newError(KindNotFound, "booking not found")
		}
		return nil, nil, err
	}
	return b, caller, nil
}

func (m *Manager) invalidate(ctx context.Context, trainerID string, slot time.Time) {
	y, mo, d := slot.In(m.loc).Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, m.loc)
	if err := m.cache.Invalidate(ctx, trainerID, day); err != nil {
		m.log.Warn("slot cache invalidate failed", zap.String("trainer_id", trainerID), zap.Error(err))
	}
}

func (m *Manager) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.IncTransition(operation, outcome)
}
