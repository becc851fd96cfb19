package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	byEmail map[string]*Account
	created []*Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*Account)}
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*Account, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeRepo) Create(_ context.Context, a *Account) (*Account, error) {
	cp := *a
	cp.ID = uuid.New()
	f.byEmail[cp.Email] = &cp
	f.created = append(f.created, &cp)
	return &cp, nil
}

func TestEnsurePractitioner_CreatesWithDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, "s3cret-default", zerolog.Nop())

	id, err := svc.EnsurePractitioner(context.Background(), "Dr. Garcia", "Dr.Garcia@Example.com ")
	if err != nil {
		t.Fatalf("EnsurePractitioner error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected a non-nil account id")
	}
	if len(repo.created) != 1 {
		t.Fatalf("created %d accounts, want 1", len(repo.created))
	}

	acc := repo.created[0]
	if acc.Email != "dr.garcia@example.com" {
		t.Errorf("email = %q, want normalized lowercase", acc.Email)
	}
	if acc.Role != RolePractitioner {
		t.Errorf("role = %q, want %q", acc.Role, RolePractitioner)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("s3cret-default")); err != nil {
		t.Errorf("password hash does not match default password: %v", err)
	}
}

func TestEnsurePractitioner_IdempotentLookup(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, "pw", zerolog.Nop())
	ctx := context.Background()

	first, err := svc.EnsurePractitioner(ctx, "Dr. Garcia", "dr@example.com")
	if err != nil {
		t.Fatalf("EnsurePractitioner error: %v", err)
	}
	second, err := svc.EnsurePractitioner(ctx, "Someone Else", "dr@example.com")
	if err != nil {
		t.Fatalf("EnsurePractitioner error: %v", err)
	}

	if first != second {
		t.Errorf("ids differ across calls: %s vs %s", first, second)
	}
	if len(repo.created) != 1 {
		t.Errorf("created %d accounts, want 1", len(repo.created))
	}
}

func TestEnsurePractitioner_EmptyEmail(t *testing.T) {
	svc := NewService(newFakeRepo(), "pw", zerolog.Nop())

	if _, err := svc.EnsurePractitioner(context.Background(), "Dr. Garcia", "  "); err == nil {
		t.Fatal("expected an error for empty email")
	}
}

func TestEnsurePractitioner_RepoFailure(t *testing.T) {
	svc := NewService(&failingRepo{}, "pw", zerolog.Nop())

	if _, err := svc.EnsurePractitioner(context.Background(), "Dr. Garcia", "dr@example.com"); err == nil {
		t.Fatal("expected lookup failure to propagate")
	}
}

type failingRepo struct{}

func (f *failingRepo) FindByEmail(context.Context, string) (*Account, error) {
	return nil, errors.New("connection reset")
}

func (f *failingRepo) Create(context.Context, *Account) (*Account, error) {
	return nil, errors.New("connection reset")
}
