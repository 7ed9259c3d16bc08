package booking

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/trainerbook/trainerbook/metrics"
)

// DefaultWorkingHours are the slot start hours used when none are configured.
var DefaultWorkingHours = []int{9, 10, 11, 12, 13, 14, 15, 16, 17, 18}

// DateLayout is the calendar date format accepted for availability lookups.
const DateLayout = "2006-01-02"

// FreeSlots returns the working-hour starts on day (in loc) that are strictly
// after now and not present in taken, ascending.
func FreeSlots(day time.Time, hours []int, loc *time.Location, taken []time.Time, now time.Time) []time.Time {
	y, m, d := day.Date()
	out := make([]time.Time, 0, len(hours))
	for _, h := range hours {
		slot := time.Date(y, m, d, h, 0, 0, 0, loc)
		if !slot.After(now) {
			continue
		}
		if containsInstant(taken, slot) {
			continue
		}
		out = append(out, slot)
	}
	return out
}

func containsInstant(list []time.Time, t time.Time) bool {
	for _, v := range list {
		if v.Equal(t) {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD calendar date in the slot timezone.
func (m *Manager) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, m.loc)
	if err != nil {
		return time.Time{}, newError(KindValidation, "date must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// AvailableSlots computes the open timeslots for trainerID on the calendar date of day.
func (m *Manager) AvailableSlots(ctx context.Context, day time.Time, trainerID string) ([]time.Time, error) {
	y, mo, d := day.Date()
	start := time.Date(y, mo, d, 0, 0, 0, 0, m.loc)

	taken, err := m.takenSlots(ctx, trainerID, start)
	if err != nil {
		return nil, err
	}
	return FreeSlots(start, m.hours, m.loc, taken, m.now()), nil
}

// takenSlots returns live booking instants for the day starting at start,
// going through the slot cache when one is configured.
func (m *Manager) takenSlots(ctx context.Context, trainerID string, start time.Time) ([]time.Time, error) {
	// gen is read before the store so a booking change in between drops the write below.
	slots, gen, ok, err := m.cache.Taken(ctx, trainerID, start)
	cacheable := err == nil
	if err != nil {
		m.log.Warn("slot cache read failed", zap.String("trainer_id", trainerID), zap.Error(err))
	} else if ok {
		metrics.IncSlotCache("hit")
		return slots, nil
	}
	metrics.IncSlotCache("miss")

	slots, err = m.store.ActiveTimeslots(ctx, trainerID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := m.cache.Store(ctx, trainerID, start, gen, slots); err != nil {
			m.log.Warn("slot cache write failed", zap.String("trainer_id", trainerID), zap.Error(err))
		}
	}
	return slots, nil
}

func normalizeHours(hours []int) []int {
	if len(hours) == 0 {
		hours = DefaultWorkingHours
	}
	seen := make(map[int]bool, len(hours))
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}
