package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo            Repository
	defaultPassword string
	log             zerolog.Logger
}

func NewService(repo Repository, defaultPassword string, log zerolog.Logger) *Service {
	return &Service{
		repo:            repo,
		defaultPassword: defaultPassword,
		log:             log.With().Str("component", "identity").Logger(),
	}
}

// EnsurePractitioner returns the account id for the given email, creating a
// practitioner account with the default password if none exists. Lookup
// first makes the call idempotent.
func (s *Service) EnsurePractitioner(ctx context.Context, name, email string) (uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return uuid.Nil, errors.New("email is required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return uuid.Nil, fmt.Errorf("find account by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash default password: %w", err)
	}

	created, err := s.repo.Create(ctx, &Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RolePractitioner,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create practitioner account: %w", err)
	}

	s.log.Info().Str("email", email).Str("account_id", created.ID.String()).Msg("provisioned practitioner account")

	return created.ID, nil
}
