package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// RepositoryPort defines data access methods for memberships.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*Membership, error)
	FindByIDWithDetails(ctx context.Context, id string) (*MembershipWithDetails, error)
	FindByUserAndOrg(ctx context.Context, userID, organizationID string) (*Membership, error)
	ListByOrganization(ctx context.Context, organizationID string, page shared.PageRequest) ([]MembershipWithDetails, int, error)
	ListByUser(ctx context.Context, userID string, page shared.PageRequest) ([]MembershipWithDetails, int, error)
	Create(ctx context.Context, m Membership) (Membership, error)
	Update(ctx context.Context, id string, roleID *string) (*Membership, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Service handles membership business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetMembership fetches a membership with its user and role attached.
func (s *Service) GetMembership(ctx context.Context, id string) (MembershipWithDetails, error) {
	m, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return MembershipWithDetails{}, err
	}
	if m == nil {
		return MembershipWithDetails{}, fmt.Errorf("%w: membership not found", httpx.ErrNotFound)
	}
	return *m, nil
}

// ListByOrganization returns one page of an organization's members.
func (s *Service) ListByOrganization(ctx context.Context, organizationID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	return s.repo.ListByOrganization(ctx, organizationID, page)
}

// ListByUser returns one page of a user's memberships.
func (s *Service) ListByUser(ctx context.Context, userID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	return s.repo.ListByUser(ctx, userID, page)
}

// CreateMembership adds a user to an organization, optionally with a role.
func (s *Service) CreateMembership(ctx context.Context, userID, organizationID string, roleID *string) (Membership, error) {
	existing, err := s.repo.FindByUserAndOrg(ctx, userID, organizationID)
	if err != nil {
		return Membership{}, err
	}
	if existing != nil {
		return Membership{}, fmt.Errorf("%w: user is already a member of this organization", httpx.ErrConflict)
	}
	return s.repo.Create(ctx, Membership{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrganizationID: organizationID,
		RoleID:         roleID,
	})
}

// UpdateMembership changes the role assignment. A nil roleID clears the role.
func (s *Service) UpdateMembership(ctx context.Context, id string, roleID *string) (Membership, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Membership{}, err
	}
	if existing == nil {
		return Membership{}, fmt.Errorf("%w: membership not found", httpx.ErrNotFound)
	}
	m, err := s.repo.Update(ctx, id, roleID)
	if err != nil {
		return Membership{}, err
	}
	if m == nil {
		return Membership{}, fmt.Errorf("%w: membership not found", httpx.ErrNotFound)
	}
	return *m, nil
}

// DeleteMembership removes a user from an organization.
func (s *Service) DeleteMembership(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: membership not found", httpx.ErrNotFound)
	}
	return nil
}
