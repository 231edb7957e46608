package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for memberships, roles
// and permission assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindMembership loads the membership row for (userID, organizationID) with
// its role and the permission keys reachable through role and direct grants.
// Returns (nil, nil) when no membership exists.
func (r *Repository) FindMembership(ctx context.Context, userID, organizationID string) (*MembershipRecord, error) {
	const query = `
		SELECT m.id, m.user_id, m.organization_id, m.role_id, m.created_at, m.updated_at,
		       r.id, r.organization_id, r.name, r.description, r.created_at, r.updated_at
		FROM memberships m
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE m.user_id = $1 AND m.organization_id = $2`

	var (
		record   MembershipRecord
		roleID   *string
		roleOrg  *string
		roleName *string
		roleDesc *string
		roleCr   *time.Time
		roleUp   *time.Time
	)
	err := r.pool.QueryRow(ctx, query, userID, organizationID).Scan(
		&record.Membership.ID,
		&record.Membership.UserID,
		&record.Membership.OrganizationID,
		&record.Membership.RoleID,
		&record.Membership.CreatedAt,
		&record.Membership.UpdatedAt,
		&roleID, &roleOrg, &roleName, &roleDesc, &roleCr, &roleUp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if roleID != nil {
		role := Role{ID: *roleID, OrganizationID: *roleOrg, Name: *roleName}
		if roleDesc != nil {
			role.Description = *roleDesc
		}
		if roleCr != nil {
			role.CreatedAt = *roleCr
		}
		if roleUp != nil {
			role.UpdatedAt = *roleUp
		}
		record.Role = &role

		record.RolePermissions, err = r.permissionKeys(ctx, `
			SELECT p.key FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = $1`, role.ID)
		if err != nil {
			return nil, err
		}
	}

	record.DirectPermissions, err = r.permissionKeys(ctx, `
		SELECT p.key FROM membership_permissions mp
		JOIN permissions p ON p.id = mp.permission_id
		WHERE mp.membership_id = $1`, record.Membership.ID)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *Repository) permissionKeys(ctx context.Context, query, id string) ([]PermissionKey, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []PermissionKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, PermissionKey(key))
	}
	return keys, rows.Err()
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id string) (*Role, error) {
	const query = `SELECT id, organization_id, name, COALESCE(description, ''), created_at, updated_at FROM roles WHERE id = $1`
	var role Role
	err := r.pool.QueryRow(ctx, query, id).Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// GetRoleByName fetches a role by its unique (organization, name) pair.
func (r *Repository) GetRoleByName(ctx context.Context, organizationID, name string) (*Role, error) {
	const query = `SELECT id, organization_id, name, COALESCE(description, ''), created_at, updated_at FROM roles WHERE organization_id = $1 AND name = $2`
	var role Role
	err := r.pool.QueryRow(ctx, query, organizationID, name).Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// ListRolesByOrganization returns the organization's roles ordered by name.
func (r *Repository) ListRolesByOrganization(ctx context.Context, organizationID string) ([]Role, error) {
	const query = `SELECT id, organization_id, name, COALESCE(description, ''), created_at, updated_at FROM roles WHERE organization_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	const query = `
		INSERT INTO roles (id, organization_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, role.ID, role.OrganizationID, role.Name, role.Description).Scan(&role.CreatedAt, &role.UpdatedAt)
	return role, err
}

// UpdateRole updates name and description of an existing role.
func (r *Repository) UpdateRole(ctx context.Context, id, name, description string) (*Role, error) {
	const query = `
		UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, organization_id, name, COALESCE(description, ''), created_at, updated_at`
	var role Role
	err := r.pool.QueryRow(ctx, query, id, name, description).Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes a role. Returns the number of rows deleted.
func (r *Repository) DeleteRole(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListPermissions returns the stored permission catalog ordered by key.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.queryPermissions(ctx, `SELECT id, key, COALESCE(description, '') FROM permissions ORDER BY key`)
}

// ListRolePermissions returns the permissions attached to a role.
func (r *Repository) ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	return r.queryPermissions(ctx, `
		SELECT p.id, p.key, COALESCE(p.description, '') FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 ORDER BY p.key`, roleID)
}

// ListMembershipPermissions returns the direct grants of a membership.
func (r *Repository) ListMembershipPermissions(ctx context.Context, membershipID string) ([]Permission, error) {
	return r.queryPermissions(ctx, `
		SELECT p.id, p.key, COALESCE(p.description, '') FROM membership_permissions mp
		JOIN permissions p ON p.id = mp.permission_id
		WHERE mp.membership_id = $1 ORDER BY p.key`, membershipID)
}

func (r *Repository) queryPermissions(ctx context.Context, query string, args ...any) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var (
			perm Permission
			key  string
		)
		if err := rows.Scan(&perm.ID, &key, &perm.Description); err != nil {
			return nil, err
		}
		perm.Key = PermissionKey(key)
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// AttachRolePermissions links permissions to a role, skipping duplicates.
func (r *Repository) AttachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	for _, permissionID := range permissionIDs {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, permissionID)
		if err != nil {
			return err
		}
	}
	return nil
}

// DetachRolePermissions unlinks the given permissions from a role.
func (r *Repository) DetachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = ANY($2)`, roleID, permissionIDs)
	return err
}

// ClearRolePermissions removes every permission from a role.
func (r *Repository) ClearRolePermissions(ctx context.Context, roleID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID)
	return err
}

// AttachMembershipPermissions links direct grants to a membership.
func (r *Repository) AttachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error {
	for _, permissionID := range permissionIDs {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO membership_permissions (membership_id, permission_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, membershipID, permissionID)
		if err != nil {
			return err
		}
	}
	return nil
}

// DetachMembershipPermissions unlinks direct grants from a membership.
func (r *Repository) DetachMembershipPermissions(ctx context.Context, membershipID string, permissionIDs []string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM membership_permissions WHERE membership_id = $1 AND permission_id = ANY($2)`, membershipID, permissionIDs)
	return err
}

// ClearMembershipPermissions removes every direct grant from a membership.
func (r *Repository) ClearMembershipPermissions(ctx context.Context, membershipID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM membership_permissions WHERE membership_id = $1`, membershipID)
	return err
}
