package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/db/dbtest"
	"github.com/trainerbook/trainerbook/models"
)

func newStore(t *testing.T) *db.Store {
	return db.NewStore(dbtest.New(t))
}

func mustUser(t *testing.T, st *db.Store, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash", Role: role}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func mustBooking(t *testing.T, st *db.Store, client, trainer *models.User, slot time.Time, status models.Status) *models.Booking {
	t.Helper()
	now := time.Now().UTC()
	b := &models.Booking{
		ClientID:  client.ID,
		TrainerID: trainer.ID,
		Timeslot:  slot,
		Duration:  60,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.InsertBooking(context.Background(), b))
	return b
}

func TestUsers(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	u := mustUser(t, st, "Ann@Example.com", models.RoleClient)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)

	got, err := st.UserByEmail(ctx, " ANN@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, got.Role)

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := st.CreateUser(ctx, &models.User{Name: "x", Email: "ann@example.com", Password: "h", Role: models.RoleClient})
		assert.ErrorIs(t, err, db.ErrDuplicate)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := st.UserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, db.ErrNotFound)
		_, err = st.UserByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, db.ErrNotFound)
		_, err = st.UserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})
}

func TestUpsertUserKeepsRole(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	coach := &models.User{Name: "Coach", Email: "coach@example.com", Password: "old", Role: models.RoleTrainer}
	require.NoError(t, st.UpsertUser(ctx, coach))
	id := coach.ID

	again := &models.User{Name: "Coach Two", Email: "coach@example.com", Password: "new", Role: models.RoleClient}
	require.NoError(t, st.UpsertUser(ctx, again))

	assert.Equal(t, id, again.ID)
	assert.Equal(t, "Coach Two", again.Name)
	assert.Equal(t, "new", again.Password)
	assert.Equal(t, models.RoleTrainer, again.Role)
}

func TestInsertBookingSlotConstraint(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	client := mustUser(t, st, "client@example.com", models.RoleClient)
	other := mustUser(t, st, "other@example.com", models.RoleClient)
	trainer := mustUser(t, st, "coach@example.com", models.RoleTrainer)
	slot := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	first := mustBooking(t, st, client, trainer, slot, models.StatusPending)

	dup := &models.Booking{ClientID: other.ID, TrainerID: trainer.ID, Timeslot: slot, Duration: 60,
		Status: models.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, st.InsertBooking(ctx, dup), db.ErrSlotTaken)

	// cancelling frees the slot
	ok, err := st.ChangeStatus(ctx, first.ID, db.StatusChange{To: models.StatusCancelled, At: time.Now()})
	require.NoError(t, err)
	require.True(t, ok)

	dup.ID = ""
	assert.NoError(t, st.InsertBooking(ctx, dup))
}

func TestBookingQueries(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	client := mustUser(t, st, "client@example.com", models.RoleClient)
	other := mustUser(t, st, "other@example.com", models.RoleClient)
	trainer := mustUser(t, st, "coach@example.com", models.RoleTrainer)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	late := mustBooking(t, st, client, trainer, day.Add(16*time.Hour), models.StatusPending)
	early := mustBooking(t, st, client, trainer, day.Add(9*time.Hour), models.StatusConfirmed)
	mustBooking(t, st, other, trainer, day.Add(11*time.Hour), models.StatusCancelled)
	mustBooking(t, st, other, trainer, day.Add(34*time.Hour), models.StatusPending)

	t.Run("ByID", func(t *testing.T) {
		b, err := st.BookingByID(ctx, late.ID)
		require.NoError(t, err)
		require.NotNil(t, b.Client)
		require.NotNil(t, b.Trainer)
		assert.Equal(t, "client@example.com", b.Client.Email)
		assert.Equal(t, "coach@example.com", b.Trainer.Email)
		assert.True(t, b.Timeslot.Equal(day.Add(16*time.Hour)))

		_, err = st.BookingByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("ForClient", func(t *testing.T) {
		list, err := st.BookingsForClient(ctx, client.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, early.ID, list[0].ID)
		assert.Equal(t, late.ID, list[1].ID)
		require.NotNil(t, list[0].Trainer)
		assert.Equal(t, trainer.Name, list[0].Trainer.Name)
	})

	t.Run("ForTrainer", func(t *testing.T) {
		list, err := st.BookingsForTrainer(ctx, trainer.ID)
		require.NoError(t, err)
		require.Len(t, list, 4)
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].Timeslot.Before(list[i-1].Timeslot))
		}
		require.NotNil(t, list[0].Client)
	})

	t.Run("ActiveTimeslots", func(t *testing.T) {
		slots, err := st.ActiveTimeslots(ctx, trainer.ID, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.True(t, slots[0].Equal(day.Add(9*time.Hour)))
		assert.True(t, slots[1].Equal(day.Add(16*time.Hour)))
	})

	t.Run("CountPending", func(t *testing.T) {
		n, err := st.CountBookings(ctx, trainer.ID, models.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestChangeStatusConditional(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	client := mustUser(t, st, "client@example.com", models.RoleClient)
	trainer := mustUser(t, st, "coach@example.com", models.RoleTrainer)
	b := mustBooking(t, st, client, trainer, time.Now().Add(72*time.Hour).Truncate(time.Hour), models.StatusPending)

	at := time.Now().UTC().Truncate(time.Second)
	notes := "see you there"
	ok, err := st.ChangeStatus(ctx, b.ID, db.StatusChange{
		From:        []models.Status{models.StatusPending},
		To:          models.StatusConfirmed,
		At:          at,
		ConfirmedAt: &at,
		Notes:       &notes,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.BookingByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, notes, got.Notes)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(at))
	assert.Nil(t, got.RejectedAt)

	// no longer pending, so the guarded update matches nothing
	ok, err = st.ChangeStatus(ctx, b.ID, db.StatusChange{
		From: []models.Status{models.StatusPending},
		To:   models.StatusConfirmed,
		At:   at,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCancelled(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	client := mustUser(t, st, "client@example.com", models.RoleClient)
	other := mustUser(t, st, "other@example.com", models.RoleClient)
	trainer := mustUser(t, st, "coach@example.com", models.RoleTrainer)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mustBooking(t, st, client, trainer, day.Add(9*time.Hour), models.StatusCancelled)
	mustBooking(t, st, client, trainer, day.Add(10*time.Hour), models.StatusCancelled)
	kept := mustBooking(t, st, client, trainer, day.Add(11*time.Hour), models.StatusPending)
	foreign := mustBooking(t, st, other, trainer, day.Add(12*time.Hour), models.StatusCancelled)

	n, err := st.DeleteCancelled(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := st.BookingsForClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	_, err = st.BookingByID(ctx, foreign.ID)
	assert.NoError(t, err)
}
