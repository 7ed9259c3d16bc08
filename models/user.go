package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Role decides which booking operations a user may perform.
type Role string

const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleTrainer
}

// User is an account with a bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Role      Role      `bun:"role,notnull,default:'client'" json:"role"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}
