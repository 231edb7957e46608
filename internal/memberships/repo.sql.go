package memberships

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `m.id, m.user_id, m.organization_id, m.role_id, m.created_at, m.updated_at`

const detailColumns = membershipColumns + `,
	u.id, u.email, COALESCE(u.name, ''),
	r.id, r.name, r.description`

// FindByID returns the membership with the given id, or (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships m WHERE m.id = $1`
	var m Membership
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.RoleID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindByIDWithDetails returns the membership joined with its user and role.
func (r *Repository) FindByIDWithDetails(ctx context.Context, id string) (*MembershipWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE m.id = $1`
	m, err := scanDetail(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// FindByUserAndOrg returns the membership for the pair, or (nil, nil) when absent.
func (r *Repository) FindByUserAndOrg(ctx context.Context, userID, organizationID string) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships m WHERE m.user_id = $1 AND m.organization_id = $2`
	var m Membership
	err := r.pool.QueryRow(ctx, query, userID, organizationID).
		Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.RoleID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByOrganization returns one page of members with the total count.
func (r *Repository) ListByOrganization(ctx context.Context, organizationID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE organization_id = $1`, organizationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + detailColumns + `
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`
	result, err := r.queryDetails(ctx, query, organizationID, page.Limit, page.Offset())
	return result, total, err
}

// ListByUser returns one page of a user's memberships with the total count.
func (r *Repository) ListByUser(ctx context.Context, userID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + detailColumns + `
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`
	result, err := r.queryDetails(ctx, query, userID, page.Limit, page.Offset())
	return result, total, err
}

// Create inserts a new membership. The unique (user_id, organization_id)
// constraint maps to a conflict error.
func (r *Repository) Create(ctx context.Context, m Membership) (Membership, error) {
	const query = `
		INSERT INTO memberships (id, user_id, organization_id, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, m.ID, m.UserID, m.OrganizationID, m.RoleID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Membership{}, mapConflict(err)
	}
	return m, nil
}

// Update changes the role assignment. Returns (nil, nil) when absent.
func (r *Repository) Update(ctx context.Context, id string, roleID *string) (*Membership, error) {
	const query = `
		UPDATE memberships SET role_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, organization_id, role_id, created_at, updated_at`
	var m Membership
	err := r.pool.QueryRow(ctx, query, id, roleID).
		Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.RoleID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Delete removes a membership. Returns the number of rows deleted.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) queryDetails(ctx context.Context, query string, args ...any) ([]MembershipWithDetails, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MembershipWithDetails
	for rows.Next() {
		m, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func scanDetail(row pgx.Row) (*MembershipWithDetails, error) {
	var m MembershipWithDetails
	var roleID, roleName, roleDescription *string
	err := row.Scan(
		&m.ID, &m.UserID, &m.OrganizationID, &m.RoleID, &m.CreatedAt, &m.UpdatedAt,
		&m.User.ID, &m.User.Email, &m.User.Name,
		&roleID, &roleName, &roleDescription,
	)
	if err != nil {
		return nil, err
	}
	if roleID != nil {
		m.Role = &RoleSummary{ID: *roleID, Name: *roleName}
		if roleDescription != nil {
			m.Role.Description = *roleDescription
		}
	}
	return &m, nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: user is already a member of this organization", httpx.ErrConflict)
	}
	return err
}
