package rbac

import "time"

// Membership associates a user with an organization, optionally through a
// role. A user holds at most one membership per organization.
type Membership struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	OrganizationID string     `json:"organizationId"`
	RoleID         *string    `json:"roleId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Role is a named permission bundle scoped to one organization.
// (organizationID, name) is unique.
type Role struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Permission is a catalog entry as stored in the database.
type Permission struct {
	ID          string        `json:"id"`
	Key         PermissionKey `json:"key"`
	Description string        `json:"description,omitempty"`
}

// MembershipRecord is the raw persistence view of one membership: the row,
// its role when assigned, and the permission keys reachable through both.
type MembershipRecord struct {
	Membership        Membership
	Role              *Role
	RolePermissions   []PermissionKey
	DirectPermissions []PermissionKey
}

// ResolvedMembership is the derived authorization view of a membership.
// It is owned by the request that computed it and never outlives it.
type ResolvedMembership struct {
	Membership        Membership    `json:"membership"`
	Role              *Role         `json:"role"`
	Permissions       PermissionSet `json:"permissions"`
	DirectPermissions PermissionSet `json:"directPermissions"`
}
