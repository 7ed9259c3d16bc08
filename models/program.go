package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Program is a training program published by the trainer.
type Program struct {
	bun.BaseModel `bun:"table:programs,alias:p"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	PriceCents  int64     `bun:"price_cents,notnull" json:"priceCents"`
	Content     string    `bun:"content,notnull" json:"content"`
	TrainerID   string    `bun:"trainer_id,notnull,type:uuid" json:"trainerId"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`

	Trainer *User `bun:"rel:belongs-to,join:trainer_id=id" json:"trainer,omitempty"`
}
