package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	List(ctx context.Context, page shared.PageRequest) ([]User, int, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id, email, name string) (*User, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	}
	return *user, nil
}

// GetUserByExternalID fetches a user by its identity-provider reference.
func (s *Service) GetUserByExternalID(ctx context.Context, externalID string) (User, error) {
	user, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	}
	return *user, nil
}

// ListUsers returns one page of users with the total count.
func (s *Service) ListUsers(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return s.repo.List(ctx, page)
}

// CreateUser registers a new user account.
func (s *Service) CreateUser(ctx context.Context, email, name, externalID string) (User, error) {
	if existing, err := s.repo.FindByEmail(ctx, email); err != nil {
		return User{}, err
	} else if existing != nil {
		return User{}, fmt.Errorf("%w: email already in use", httpx.ErrConflict)
	}
	if externalID != "" {
		if existing, err := s.repo.FindByExternalID(ctx, externalID); err != nil {
			return User{}, err
		} else if existing != nil {
			return User{}, fmt.Errorf("%w: user with this external id already exists", httpx.ErrConflict)
		}
	}
	return s.repo.Create(ctx, User{ID: uuid.NewString(), Email: email, Name: name, ExternalID: externalID})
}

// UpdateUser changes a user's email or name.
func (s *Service) UpdateUser(ctx context.Context, id, email, name string) (User, error) {
	current, err := s.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if email == "" {
		email = current.Email
	}
	if email != current.Email {
		existing, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return User{}, err
		}
		if existing != nil && existing.ID != id {
			return User{}, fmt.Errorf("%w: email already in use", httpx.ErrConflict)
		}
	}
	if name == "" {
		name = current.Name
	}
	updated, err := s.repo.Update(ctx, id, email, name)
	if err != nil {
		return User{}, err
	}
	if updated == nil {
		return User{}, fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	}
	return *updated, nil
}

// DeleteUser removes a user account.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	}
	return nil
}

// GetOrCreateUser provisions an account during first sign-in. A user that
// already exists under the same email but a different external id is a
// conflict: accounts are never silently linked across identity providers.
func (s *Service) GetOrCreateUser(ctx context.Context, externalID, email, name string) (User, bool, error) {
	user, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return User{}, false, err
	}
	if user != nil {
		return *user, false, nil
	}

	user, err = s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, false, err
	}
	if user != nil {
		return User{}, false, fmt.Errorf("%w: user exists with this email but different authentication provider", httpx.ErrConflict)
	}

	created, err := s.repo.Create(ctx, User{ID: uuid.NewString(), Email: email, Name: name, ExternalID: externalID})
	if err != nil {
		return User{}, false, err
	}
	return created, true, nil
}
