// Package cache keeps each trainer's taken slots per day in Redis.
//
// Every trainer day has a generation counter next to its entry. Invalidate bumps
// the counter, and Store only writes when the counter still holds the value the
// caller saw in Taken, so a list read before a booking change can never be
// written back after it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// generationTTL bounds how long an idle day's counter is kept.
const generationTTL = 24 * time.Hour

var errStale = errors.New("slot cache generation moved")

// Slots caches taken booking instants keyed by trainer and calendar day.
type Slots struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client from options.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewSlots wraps client; entries expire after ttl so a missed invalidation heals itself.
func NewSlots(client *redis.Client, ttl time.Duration) *Slots {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Slots{client: client, ttl: ttl}
}

func key(trainerID string, day time.Time) string {
	return fmt.Sprintf("slots:%s:%s", trainerID, day.Format("2006-01-02"))
}

func genKey(trainerID string, day time.Time) string {
	return fmt.Sprintf("slots:gen:%s:%s", trainerID, day.Format("2006-01-02"))
}

// Taken returns the cached instants, the day's current generation and whether
// the entry existed. On a miss, pass the generation back to Store.
func (s *Slots) Taken(ctx context.Context, trainerID string, day time.Time) ([]time.Time, int64, bool, error) {
	var genCmd, valCmd *redis.StringCmd
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		genCmd = p.Get(ctx, genKey(trainerID, day))
		valCmd = p.Get(ctx, key(trainerID, day))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("get slots from redis: %w", err)
	}

	gen, err := genCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("get slots generation: %w", err)
	}

	val, err := valCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("get slots from redis: %w", err)
	}

	var slots []time.Time
	if err := json.Unmarshal(val, &slots); err != nil {
		return nil, 0, false, fmt.Errorf("unmarshal slots: %w", err)
	}
	return slots, gen, true, nil
}

// Store caches slots for the trainer's day if the day is still at generation gen.
// A moved generation is not an error; the write is dropped.
func (s *Slots) Store(ctx context.Context, trainerID string, day time.Time, gen int64, slots []time.Time) error {
	if slots == nil {
		slots = []time.Time{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}

	gk := genKey(trainerID, day)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key(trainerID, day), data, s.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set slots in redis: %w", err)
	}
	return nil
}

// Invalidate bumps the day's generation and drops its entry in one transaction.
func (s *Slots) Invalidate(ctx context.Context, trainerID string, day time.Time) error {
	gk := genKey(trainerID, day)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, gk)
		p.Expire(ctx, gk, generationTTL)
		p.Del(ctx, key(trainerID, day))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete slots from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
