package orgs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// RepositoryPort defines data access methods for organizations.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, page shared.PageRequest) ([]Organization, int, error)
	Create(ctx context.Context, org Organization) (Organization, error)
	Update(ctx context.Context, id, name string) (*Organization, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Service handles organization business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetOrganization fetches an organization by ID.
func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if org == nil {
		return Organization{}, fmt.Errorf("%w: organization not found", httpx.ErrNotFound)
	}
	return *org, nil
}

// ListOrganizations returns one page of organizations with the total count.
func (s *Service) ListOrganizations(ctx context.Context, page shared.PageRequest) ([]Organization, int, error) {
	return s.repo.List(ctx, page)
}

// CreateOrganization registers a new tenant.
func (s *Service) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	return s.repo.Create(ctx, Organization{ID: uuid.NewString(), Name: name})
}

// UpdateOrganization renames an organization.
func (s *Service) UpdateOrganization(ctx context.Context, id, name string) (Organization, error) {
	if _, err := s.GetOrganization(ctx, id); err != nil {
		return Organization{}, err
	}
	org, err := s.repo.Update(ctx, id, name)
	if err != nil {
		return Organization{}, err
	}
	if org == nil {
		return Organization{}, fmt.Errorf("%w: organization not found", httpx.ErrNotFound)
	}
	return *org, nil
}

// DeleteOrganization removes a tenant.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: organization not found", httpx.ErrNotFound)
	}
	return nil
}
