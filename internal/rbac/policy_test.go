package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermissionSetDeduplicates(t *testing.T) {
	set := NewPermissionSet(PermUsersRead, PermUsersRead, PermBillingRead)
	require.Len(t, set, 2)
}

func TestPermissionSetUnion(t *testing.T) {
	role := NewPermissionSet(PermUsersRead, PermOrganizationsRead)
	direct := NewPermissionSet(PermBillingRead, PermUsersRead)

	effective := role.Union(direct)
	require.ElementsMatch(t,
		[]PermissionKey{PermBillingRead, PermOrganizationsRead, PermUsersRead},
		effective.Keys())

	// Union does not mutate its inputs.
	require.Len(t, role, 2)
	require.Len(t, direct, 2)
}

func TestPermissionSetChecks(t *testing.T) {
	set := NewPermissionSet(PermUsersRead, PermOrganizationsRead)

	require.True(t, set.Has(PermUsersRead))
	require.False(t, set.Has(PermUsersWrite))

	require.True(t, set.HasAny(PermUsersWrite, PermUsersRead))
	require.False(t, set.HasAny(PermUsersWrite, PermUsersDelete))
	require.False(t, set.HasAny())

	require.True(t, set.HasAll(PermUsersRead, PermOrganizationsRead))
	require.False(t, set.HasAll(PermUsersRead, PermUsersWrite))
	require.True(t, set.HasAll())

	// Single-key equivalences with Has.
	require.Equal(t, set.Has(PermUsersRead), set.HasAny(PermUsersRead))
	require.Equal(t, set.Has(PermUsersRead), set.HasAll(PermUsersRead))
}

func TestPermissionSetMarshalsSorted(t *testing.T) {
	set := NewPermissionSet(PermUsersRead, PermBillingRead, PermMembershipsWrite)
	data, err := json.Marshal(set)
	require.NoError(t, err)
	require.JSONEq(t, `["billing.read","memberships.write","users.read"]`, string(data))
}

func TestParseKey(t *testing.T) {
	key, ok := ParseKey("users.read")
	require.True(t, ok)
	require.Equal(t, PermUsersRead, key)

	_, ok = ParseKey("users.admin")
	require.False(t, ok)

	_, ok = ParseKey("")
	require.False(t, ok)

	for _, k := range AllPermissionKeys() {
		_, ok := ParseKey(string(k))
		require.True(t, ok, "catalog key %s must parse", k)
	}
}
