package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

// ManagementStore is the persistence contract for role and grant management.
type ManagementStore interface {
	GetRole(ctx context.Context, id string) (*Role, error)
	GetRoleByName(ctx context.Context, organizationID, name string) (*Role, error)
	ListRolesByOrganization(ctx context.Context, organizationID string) ([]Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, id, name, description string) (*Role, error)
	DeleteRole(ctx context.Context, id string) (int64, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error)
	AttachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	DetachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	ClearRolePermissions(ctx context.Context, roleID string) error

	ListMembershipPermissions(ctx context.Context, membershipID string) ([]Permission, error)
	AttachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error
	DetachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error
	ClearMembershipPermissions(ctx context.Context, membershipID string) error
}

// Service orchestrates role and permission-grant management.
type Service struct {
	store ManagementStore
}

// NewService constructs a Service.
func NewService(store ManagementStore) *Service {
	return &Service{store: store}
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if role == nil {
		return Role{}, fmt.Errorf("%w: role not found", httpx.ErrNotFound)
	}
	return *role, nil
}

// ListRoles returns an organization's roles ordered by name.
func (s *Service) ListRoles(ctx context.Context, organizationID string) ([]Role, error) {
	return s.store.ListRolesByOrganization(ctx, organizationID)
}

// CreateRole inserts a new role; (organization, name) must be unique.
func (s *Service) CreateRole(ctx context.Context, organizationID, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	existing, err := s.store.GetRoleByName(ctx, organizationID, name)
	if err != nil {
		return Role{}, err
	}
	if existing != nil {
		return Role{}, fmt.Errorf("%w: role with this name already exists in the organization", httpx.ErrConflict)
	}
	return s.store.CreateRole(ctx, Role{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
		Description:    strings.TrimSpace(description),
	})
}

// UpdateRole changes a role's name or description.
func (s *Service) UpdateRole(ctx context.Context, id, name, description string) (Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = role.Name
	}
	if name != role.Name {
		existing, err := s.store.GetRoleByName(ctx, role.OrganizationID, name)
		if err != nil {
			return Role{}, err
		}
		if existing != nil {
			return Role{}, fmt.Errorf("%w: role with this name already exists in the organization", httpx.ErrConflict)
		}
	}
	if description == "" {
		description = role.Description
	}
	updated, err := s.store.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	if updated == nil {
		return Role{}, fmt.Errorf("%w: role not found", httpx.ErrNotFound)
	}
	return *updated, nil
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	rows, err := s.store.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: role not found", httpx.ErrNotFound)
	}
	return nil
}

// ListPermissions returns the stored permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// ListRolePermissions returns the permissions attached to a role.
func (s *Service) ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.ListRolePermissions(ctx, roleID)
}

// AttachRolePermissions adds permissions to a role, skipping duplicates.
func (s *Service) AttachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.store.AttachRolePermissions(ctx, roleID, permissionIDs)
}

// DetachRolePermissions removes permissions from a role.
func (s *Service) DetachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.store.DetachRolePermissions(ctx, roleID, permissionIDs)
}

// SyncRolePermissions replaces a role's permission set wholesale.
func (s *Service) SyncRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	if err := s.store.ClearRolePermissions(ctx, roleID); err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	return s.store.AttachRolePermissions(ctx, roleID, permissionIDs)
}

// ListMembershipPermissions returns a membership's direct grants.
func (s *Service) ListMembershipPermissions(ctx context.Context, membershipID string) ([]Permission, error) {
	return s.store.ListMembershipPermissions(ctx, membershipID)
}

// AttachMembershipPermissions adds direct grants to a membership.
func (s *Service) AttachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error {
	return s.store.AttachMembershipPermissions(ctx, membershipID, permissionIDs)
}

// DetachMembershipPermissions removes direct grants from a membership.
func (s *Service) DetachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error {
	return s.store.DetachMembershipPermissions(ctx, membershipID, permissionIDs)
}

// SyncMembershipPermissions replaces a membership's direct grants wholesale.
func (s *Service) SyncMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error {
	if err := s.store.ClearMembershipPermissions(ctx, membershipID); err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	return s.store.AttachMembershipPermissions(ctx, membershipID, permissionIDs)
}
