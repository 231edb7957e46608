package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubMembershipStore struct {
	records map[string]*MembershipRecord
	err     error
	calls   int
}

func (s *stubMembershipStore) FindMembership(ctx context.Context, userID, organizationID string) (*MembershipRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records[userID+":"+organizationID], nil
}

func TestResolveMergesRoleAndDirectPermissions(t *testing.T) {
	roleID := "role-1"
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": {
			Membership:        Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1", RoleID: &roleID},
			Role:              &Role{ID: roleID, OrganizationID: "org-1", Name: "member"},
			RolePermissions:   []PermissionKey{PermUsersRead, PermOrganizationsRead},
			DirectPermissions: []PermissionKey{PermBillingRead},
		},
	}}
	resolver := NewMembershipResolver(store)

	resolved, err := resolver.Resolve(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.ElementsMatch(t,
		[]PermissionKey{PermBillingRead, PermOrganizationsRead, PermUsersRead},
		resolved.Permissions.Keys())
	require.ElementsMatch(t, []PermissionKey{PermBillingRead}, resolved.DirectPermissions.Keys())
	require.Equal(t, "member", resolved.Role.Name)
}

func TestResolveOverlappingGrantsCollapse(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": {
			Membership:        Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1"},
			RolePermissions:   []PermissionKey{PermUsersRead},
			DirectPermissions: []PermissionKey{PermUsersRead},
		},
	}}
	resolver := NewMembershipResolver(store)

	resolved, err := resolver.Resolve(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.Len(t, resolved.Permissions, 1)
}

func TestResolveRoleWithoutMembershipGrantsNothing(t *testing.T) {
	// A role existing in the organization gives no access to a user who
	// holds no membership row.
	store := &stubMembershipStore{records: map[string]*MembershipRecord{}}
	resolver := NewMembershipResolver(store)

	resolved, err := resolver.Resolve(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestResolveRolelessMembershipKeepsDirectGrants(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": {
			Membership:        Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1"},
			DirectPermissions: []PermissionKey{PermBillingRead},
		},
	}}
	resolver := NewMembershipResolver(store)

	resolved, err := resolver.Resolve(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Nil(t, resolved.Role)
	require.ElementsMatch(t, []PermissionKey{PermBillingRead}, resolved.Permissions.Keys())
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	store := &stubMembershipStore{err: errors.New("connection refused")}
	resolver := NewMembershipResolver(store)

	_, err := resolver.Resolve(context.Background(), "user-1", "org-1")
	require.Error(t, err)
}
