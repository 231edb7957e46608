package rbac

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// MembershipStore is the persistence contract consumed by the resolver.
// FindMembership returns (nil, nil) when no membership row exists.
type MembershipStore interface {
	FindMembership(ctx context.Context, userID, organizationID string) (*MembershipRecord, error)
}

// MembershipResolver computes the effective permission set for a user in an
// organization. It is idempotent and side-effect free; results are only
// cached per request by the guard chain, never here, so role changes are
// visible immediately.
type MembershipResolver struct {
	store MembershipStore
	group singleflight.Group
}

// NewMembershipResolver constructs a resolver over the given store.
func NewMembershipResolver(store MembershipStore) *MembershipResolver {
	return &MembershipResolver{store: store}
}

// Resolve loads the membership for (userID, organizationID) with its role and
// direct grants and merges both into the effective permission set. It returns
// (nil, nil) when the user is not a member. Concurrent identical lookups
// collapse to a single persistence read; nothing is retained once the flight
// completes.
func (r *MembershipResolver) Resolve(ctx context.Context, userID, organizationID string) (*ResolvedMembership, error) {
	result, err, _ := r.group.Do(cacheKey(userID, organizationID), func() (any, error) {
		record, err := r.store.FindMembership(ctx, userID, organizationID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return (*ResolvedMembership)(nil), nil
		}

		direct := NewPermissionSet(record.DirectPermissions...)
		effective := NewPermissionSet(record.RolePermissions...).Union(direct)

		return &ResolvedMembership{
			Membership:        record.Membership,
			Role:              record.Role,
			Permissions:       effective,
			DirectPermissions: direct,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ResolvedMembership), nil
}
