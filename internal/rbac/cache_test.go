package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermissionCacheGetSet(t *testing.T) {
	cache := NewPermissionCache()

	_, ok := cache.Get("user-1", "org-1")
	require.False(t, ok)

	resolved := &ResolvedMembership{Permissions: NewPermissionSet(PermUsersRead)}
	cache.Set("user-1", "org-1", resolved)

	got, ok := cache.Get("user-1", "org-1")
	require.True(t, ok)
	require.Same(t, resolved, got)

	// Entries are scoped to the exact (user, organization) pair.
	_, ok = cache.Get("user-1", "org-2")
	require.False(t, ok)
	_, ok = cache.Get("user-2", "org-1")
	require.False(t, ok)
}

func TestCacheMiddlewareAttachesFreshCachePerRequest(t *testing.T) {
	var seen []*PermissionCache
	handler := CacheMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cache := CacheFromContext(r.Context())
		require.NotNil(t, cache)
		seen = append(seen, cache)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, seen, 2)
	require.NotSame(t, seen[0], seen[1])
}

func TestCacheFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, CacheFromContext(req.Context()))
}
