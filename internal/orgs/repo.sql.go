package orgs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

// FindByID returns the organization with the given id, or (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

// List returns one page of organizations with the total count.
func (r *Repository) List(ctx context.Context, page shared.PageRequest) ([]Organization, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM organizations ORDER BY created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, org)
	}
	return result, total, rows.Err()
}

// Create inserts a new organization.
func (r *Repository) Create(ctx context.Context, org Organization) (Organization, error) {
	const query = `
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, org.ID, org.Name).Scan(&org.CreatedAt, &org.UpdatedAt)
	return org, err
}

// Update renames an organization. Returns (nil, nil) when absent.
func (r *Repository) Update(ctx context.Context, id, name string) (*Organization, error) {
	const query = `
		UPDATE organizations SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at`
	var org Organization
	err := r.pool.QueryRow(ctx, query, id, name).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

// Delete removes an organization. Returns the number of rows deleted.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
