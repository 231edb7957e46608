// Package orgs manages organizations, the tenancy unit of the platform.
package orgs

import "time"

// Organization is a tenant. Memberships, roles and billing all hang off it.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
