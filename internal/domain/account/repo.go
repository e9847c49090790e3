package account

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository is the credential store. Lookups of missing accounts
// return an error wrapping apperr.ErrNotFound; Create returns one wrapping
// apperr.ErrDuplicate when the email or username is taken.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
