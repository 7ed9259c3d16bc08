package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is a booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DefaultDuration is used when a booking request omits the session length.
const DefaultDuration = 60

// MaxNotesLength bounds the free-text notes a client may attach.
const MaxNotesLength = 1000

// Durations lists the allowed session lengths in minutes.
var Durations = []int{30, 45, 60, 90}

// ValidDuration reports whether d is one of Durations.
func ValidDuration(d int) bool {
	for _, v := range Durations {
		if v == d {
			return true
		}
	}
	return false
}

// Booking is a client's reservation of a trainer timeslot.
type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID          string     `bun:"id,pk,type:uuid" json:"id"`
	ClientID    string     `bun:"client_id,notnull,type:uuid" json:"clientId"`
	TrainerID   string     `bun:"trainer_id,notnull,type:uuid" json:"trainerId"`
	Timeslot    time.Time  `bun:"timeslot,notnull" json:"timeslot"`
	Duration    int        `bun:"duration,notnull,default:60" json:"duration"`
	Notes       string     `bun:"notes,notnull,default:''" json:"notes"`
	Status      Status     `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
	ConfirmedAt *time.Time `bun:"confirmed_at" json:"confirmedAt,omitempty"`
	RejectedAt  *time.Time `bun:"rejected_at" json:"rejectedAt,omitempty"`

	Client  *User `bun:"rel:belongs-to,join:client_id=id" json:"client,omitempty"`
	Trainer *User `bun:"rel:belongs-to,join:trainer_id=id" json:"trainer,omitempty"`
}
