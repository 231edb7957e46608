// Package rbac resolves organization memberships into effective permission
// sets and exposes the guard chain that protects API routes.
package rbac

// PermissionKey identifies one entry in the fixed permission catalog. Keys
// are not user-definable at runtime; raw strings are validated against the
// catalog at the boundary before they enter the core.
type PermissionKey string

// The permission catalog.
const (
	PermUsersRead   PermissionKey = "users.read"
	PermUsersWrite  PermissionKey = "users.write"
	PermUsersDelete PermissionKey = "users.delete"

	PermOrganizationsRead   PermissionKey = "organizations.read"
	PermOrganizationsWrite  PermissionKey = "organizations.write"
	PermOrganizationsDelete PermissionKey = "organizations.delete"

	PermMembershipsRead   PermissionKey = "memberships.read"
	PermMembershipsWrite  PermissionKey = "memberships.write"
	PermMembershipsDelete PermissionKey = "memberships.delete"

	PermRolesRead   PermissionKey = "roles.read"
	PermRolesWrite  PermissionKey = "roles.write"
	PermRolesDelete PermissionKey = "roles.delete"

	PermBillingRead          PermissionKey = "billing.read"
	PermBillingWrite         PermissionKey = "billing.write"
	PermBillingInvoiceCreate PermissionKey = "billing.invoice.create"
)

// AllPermissionKeys returns every key in the catalog.
func AllPermissionKeys() []PermissionKey {
	return []PermissionKey{
		PermUsersRead,
		PermUsersWrite,
		PermUsersDelete,
		PermOrganizationsRead,
		PermOrganizationsWrite,
		PermOrganizationsDelete,
		PermMembershipsRead,
		PermMembershipsWrite,
		PermMembershipsDelete,
		PermRolesRead,
		PermRolesWrite,
		PermRolesDelete,
		PermBillingRead,
		PermBillingWrite,
		PermBillingInvoiceCreate,
	}
}

var catalog = func() map[PermissionKey]struct{} {
	m := make(map[PermissionKey]struct{})
	for _, k := range AllPermissionKeys() {
		m[k] = struct{}{}
	}
	return m
}()

// ParseKey validates a raw string against the catalog.
func ParseKey(raw string) (PermissionKey, bool) {
	k := PermissionKey(raw)
	_, ok := catalog[k]
	return k, ok
}
