package booking

import (
	"context"
	"errors"

	"github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/models"
)

// UserLookup resolves users from the store.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TrainerResolver decides which trainer a new booking belongs to.
type TrainerResolver interface {
	ResolveTrainer(ctx context.Context) (*models.User, error)
}

// ConfiguredTrainer resolves the trainer named in configuration, by id or by email.
type ConfiguredTrainer struct {
	ID    string
	Email string
	Users UserLookup
}

// ResolveTrainer loads the configured account and checks it still holds the trainer role.
func (c ConfiguredTrainer) ResolveTrainer(ctx context.Context) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case c.ID != "":
		u, err = c.Users.UserByID(ctx, c.ID)
	case c.Email != "":
		u, err = c.Users.UserByEmail(ctx, c.Email)
	default:
		return nil, newError(KindNotFound, "no trainer configured")
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(KindNotFound, "no trainer available")
		}
		return nil, err
	}
	if u.Role != models.RoleTrainer {
		return nil, newError(KindNotFound, "no trainer available")
	}
	return u, nil
}
