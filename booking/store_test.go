package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/models"
)

// memStore mirrors db.Store semantics, including the one-live-booking-per-slot index.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	bookings map[string]*models.Booking
	slotErr  error
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{users: map[string]*models.User{}, bookings: map[string]*models.Booking{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) InsertBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.bookings {
		if other.TrainerID == b.TrainerID && other.Timeslot.Equal(b.Timeslot) && other.Status != models.StatusCancelled {
			return db.ErrSlotTaken
		}
	}
	cp := *b
	cp.Client, cp.Trainer = nil, nil
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStore) expand(b models.Booking) models.Booking {
	if u, ok := s.users[b.ClientID]; ok {
		cp := *u
		b.Client = &cp
	}
	if u, ok := s.users[b.TrainerID]; ok {
		cp := *u
		b.Trainer = &cp
	}
	return b
}

func (s *memStore) BookingByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := s.expand(*b)
	return &out, nil
}

func (s *memStore) list(match func(*models.Booking) bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, s.expand(*b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timeslot.Before(out[j].Timeslot) })
	return out
}

func (s *memStore) BookingsForClient(_ context.Context, clientID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(b *models.Booking) bool { return b.ClientID == clientID }), nil
}

func (s *memStore) BookingsForTrainer(_ context.Context, trainerID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(b *models.Booking) bool { return b.TrainerID == trainerID }), nil
}

func (s *memStore) ActiveTimeslots(_ context.Context, trainerID string, from, to time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, b := range s.list(func(b *models.Booking) bool {
		return b.TrainerID == trainerID && b.Status != models.StatusCancelled &&
			!b.Timeslot.Before(from) && b.Timeslot.Before(to)
	}) {
		out = append(out, b.Timeslot)
	}
	return out, nil
}

func (s *memStore) ChangeStatus(_ context.Context, id string, ch db.StatusChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	if len(ch.From) > 0 {
		allowed := false
		for _, st := range ch.From {
			allowed = allowed || b.Status == st
		}
		if !allowed {
			return false, nil
		}
	}
	b.Status = ch.To
	b.UpdatedAt = ch.At
	if ch.ConfirmedAt != nil {
		b.ConfirmedAt = ch.ConfirmedAt
	}
	if ch.RejectedAt != nil {
		b.RejectedAt = ch.RejectedAt
	}
	if ch.Notes != nil {
		b.Notes = *ch.Notes
	}
	return true, nil
}

func (s *memStore) CountBookings(_ context.Context, trainerID string, status models.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list(func(b *models.Booking) bool { return b.TrainerID == trainerID && b.Status == status })), nil
}

func (s *memStore) DeleteCancelled(_ context.Context, clientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, b := range s.bookings {
		if b.ClientID == clientID && b.Status == models.StatusCancelled {
			delete(s.bookings, id)
			n++
		}
	}
	return n, nil
}

// put stores a booking directly, bypassing Create.
func (s *memStore) put(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = &b
}

func (s *memStore) get(id string) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

// countingCache records cache traffic for the Manager tests and honours
// generations the way cache.Slots does.
type countingCache struct {
	mu          sync.Mutex
	entries     map[string][]time.Time
	gens        map[string]int64
	invalidated []string
	dropped     int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string][]time.Time{}, gens: map[string]int64{}}
}

func cacheKey(trainerID string, day time.Time) string {
	return trainerID + "/" + day.Format(DateLayout)
}

func (c *countingCache) Taken(_ context.Context, trainerID string, day time.Time) ([]time.Time, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(trainerID, day)
	v, ok := c.entries[k]
	return v, c.gens[k], ok, nil
}

func (c *countingCache) Store(_ context.Context, trainerID string, day time.Time, gen int64, slots []time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(trainerID, day)
	if c.gens[k] != gen {
		c.dropped++
		return nil
	}
	c.entries[k] = slots
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, trainerID string, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(trainerID, day)
	c.gens[k]++
	delete(c.entries, k)
	c.invalidated = append(c.invalidated, k)
	return nil
}

// pausingStore holds the first ActiveTimeslots call after it has read, until
// release is closed.
type pausingStore struct {
	*memStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingStore(s *memStore) *pausingStore {
	return &pausingStore{memStore: s, read: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) ActiveTimeslots(ctx context.Context, trainerID string, from, to time.Time) ([]time.Time, error) {
	slots, err := p.memStore.ActiveTimeslots(ctx, trainerID, from, to)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return slots, err
}
