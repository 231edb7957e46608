// Package memberships links users to organizations and optionally a role.
package memberships

import "time"

// Membership is the join record between a user and an organization. RoleID is
// nil for members without an assigned role; they still carry direct grants.
type Membership struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	RoleID         *string   `json:"roleId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary is the embedded user projection on detail listings.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RoleSummary is the embedded role projection on detail listings.
type RoleSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MembershipWithDetails joins the membership with its user and role.
type MembershipWithDetails struct {
	Membership
	User UserSummary  `json:"user"`
	Role *RoleSummary `json:"role"`
}
