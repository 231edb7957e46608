package rbac

import "context"

type membershipContextKey struct{}

// ContextWithMembership stores the resolved membership in context. Downstream
// handlers must treat it as read-only.
func ContextWithMembership(ctx context.Context, resolved *ResolvedMembership) context.Context {
	return context.WithValue(ctx, membershipContextKey{}, resolved)
}

// MembershipFromContext extracts the resolved membership from context.
func MembershipFromContext(ctx context.Context) *ResolvedMembership {
	resolved, _ := ctx.Value(membershipContextKey{}).(*ResolvedMembership)
	return resolved
}
