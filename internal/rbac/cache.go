package rbac

import (
	"context"
	"net/http"
)

// PermissionCache memoizes resolved memberships for the lifetime of one
// request. One instance is created per request and carried in the request
// context; it must never be promoted to process scope, so a role change is
// visible on the very next request. No locking: guard execution within a
// request is sequential.
type PermissionCache struct {
	entries map[string]*ResolvedMembership
}

// NewPermissionCache constructs an empty cache.
func NewPermissionCache() *PermissionCache {
	return &PermissionCache{entries: make(map[string]*ResolvedMembership)}
}

// Get returns the cached resolution for (userID, organizationID), if any.
func (c *PermissionCache) Get(userID, organizationID string) (*ResolvedMembership, bool) {
	resolved, ok := c.entries[cacheKey(userID, organizationID)]
	return resolved, ok
}

// Set stores a resolution for (userID, organizationID).
func (c *PermissionCache) Set(userID, organizationID string, resolved *ResolvedMembership) {
	c.entries[cacheKey(userID, organizationID)] = resolved
}

func cacheKey(userID, organizationID string) string {
	return userID + ":" + organizationID
}

type cacheContextKey struct{}

// ContextWithCache stores the request cache in context.
func ContextWithCache(ctx context.Context, cache *PermissionCache) context.Context {
	return context.WithValue(ctx, cacheContextKey{}, cache)
}

// CacheFromContext extracts the request cache from context.
func CacheFromContext(ctx context.Context) *PermissionCache {
	cache, _ := ctx.Value(cacheContextKey{}).(*PermissionCache)
	return cache
}

// CacheMiddleware attaches a fresh PermissionCache to every request.
func CacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithCache(r.Context(), NewPermissionCache())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
