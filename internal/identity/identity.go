// Package identity holds the practitioner account directory used by the
// scheduling service's auto-provision sub-flow.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const RolePractitioner = "practitioner"

var ErrAccountNotFound = errors.New("account not found")

type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) (*Account, error)
}
