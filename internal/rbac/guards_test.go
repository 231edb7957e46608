package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pozial/pozial-api/internal/auth"
	"github.com/pozial/pozial-api/internal/platform/httpx"
)

func memberRecord(userID, orgID string, rolePerms, directPerms []PermissionKey) *MembershipRecord {
	return &MembershipRecord{
		Membership:        Membership{ID: "m-" + userID, UserID: userID, OrganizationID: orgID},
		RolePermissions:   rolePerms,
		DirectPermissions: directPerms,
	}
}

// identityMiddleware injects a verified identity, standing in for the
// signature verification layer.
func identityMiddleware(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity != nil {
				r = r.WithContext(auth.ContextWithIdentity(r.Context(), *identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newGuardedRouter(identity *auth.Identity, store MembershipStore, guardsFor func(Guards) []func(http.Handler) http.Handler) (chi.Router, *bool) {
	guards := Guards{Resolver: NewMembershipResolver(store)}
	reached := false

	r := chi.NewRouter()
	r.Use(identityMiddleware(identity))
	r.Use(CacheMiddleware)
	r.Route("/organizations/{organizationID}/things", func(r chi.Router) {
		r.With(guardsFor(guards)...).Get("/", func(w http.ResponseWriter, req *http.Request) {
			reached = true
			httpx.OK(w, nil)
		})
	})
	return r, &reached
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body.Error
}

func TestGuardChainRejectsUnauthenticatedFirst(t *testing.T) {
	store := &stubMembershipStore{}
	router, reached := newGuardedRouter(nil, store, func(g Guards) []func(http.Handler) http.Handler {
		return []func(http.Handler) http.Handler{
			g.RequireAuthenticated,
			g.RequireOrganization,
			g.RequirePermission(PermUsersRead),
		}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
	// The chain stops before any membership lookup happens.
	require.Zero(t, store.calls)
}

func TestGuardChainRejectsNonMember(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{}}
	identity := &auth.Identity{UserID: "user-1"}
	router, reached := newGuardedRouter(identity, store, func(g Guards) []func(http.Handler) http.Handler {
		return []func(http.Handler) http.Handler{
			g.RequireAuthenticated,
			g.RequireOrganization,
			g.RequirePermission(PermUsersRead),
		}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, *reached)
	require.Contains(t, errorMessage(t, rec), "not a member")
}

func TestGuardChainRejectsMissingPermission(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead}, nil),
	}}
	identity := &auth.Identity{UserID: "user-1", OrganizationID: "org-1"}
	router, reached := newGuardedRouter(identity, store, func(g Guards) []func(http.Handler) http.Handler {
		return []func(http.Handler) http.Handler{
			g.RequireAuthenticated,
			g.RequireOrganization,
			g.RequirePermission(PermUsersWrite),
		}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, *reached)
	require.Contains(t, errorMessage(t, rec), string(PermUsersWrite))
}

func TestGuardChainAllowsDirectGrant(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead}, []PermissionKey{PermBillingRead}),
	}}
	identity := &auth.Identity{UserID: "user-1", OrganizationID: "org-1"}
	router, reached := newGuardedRouter(identity, store, func(g Guards) []func(http.Handler) http.Handler {
		return []func(http.Handler) http.Handler{
			g.RequireAuthenticated,
			g.RequireOrganization,
			g.RequirePermission(PermBillingRead),
		}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *reached)
}

func TestGuardChainResolvesOncePerRequest(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead, PermUsersWrite}, nil),
	}}
	guards := Guards{Resolver: NewMembershipResolver(store)}
	reached := false

	r := chi.NewRouter()
	r.Use(identityMiddleware(&auth.Identity{UserID: "user-1"}))
	r.Use(CacheMiddleware)
	r.Route("/organizations/{organizationID}/things", func(r chi.Router) {
		r.Use(guards.RequireAuthenticated, guards.RequireOrganization)
		// Stacked permission guards reuse the membership resolved above.
		r.With(
			guards.RequirePermission(PermUsersRead),
			guards.RequirePermission(PermUsersWrite),
		).Get("/", func(w http.ResponseWriter, req *http.Request) {
			reached = true
			httpx.OK(w, nil)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
	require.Equal(t, 1, store.calls)
}

func TestRequireOrganizationFallsBackToQueryAndHeader(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermRolesRead}, nil),
	}}
	guards := Guards{Resolver: NewMembershipResolver(store)}

	r := chi.NewRouter()
	r.Use(identityMiddleware(&auth.Identity{UserID: "user-1"}))
	r.Use(CacheMiddleware)
	r.With(guards.RequireAuthenticated, guards.RequireOrganization).Get("/roles", func(w http.ResponseWriter, req *http.Request) {
		resolved := MembershipFromContext(req.Context())
		require.NotNil(t, resolved)
		httpx.OK(w, nil)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles?organizationId=org-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set(auth.HeaderOrganizationID, "org-1")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// No organization in path, query or header.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequirePermissionWithoutMembershipContext(t *testing.T) {
	guards := Guards{Resolver: NewMembershipResolver(&stubMembershipStore{})}

	r := chi.NewRouter()
	r.Use(identityMiddleware(&auth.Identity{UserID: "user-1"}))
	// RequireOrganization deliberately missing from the chain.
	r.With(guards.RequirePermission(PermUsersRead)).Get("/", func(w http.ResponseWriter, req *http.Request) {
		httpx.OK(w, nil)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, errorMessage(t, rec), "membership required")
}

func TestRequireAnyAndAllPermissions(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead}, nil),
	}}

	run := func(guardFor func(Guards) func(http.Handler) http.Handler) int {
		guards := Guards{Resolver: NewMembershipResolver(store)}
		r := chi.NewRouter()
		r.Use(identityMiddleware(&auth.Identity{UserID: "user-1"}))
		r.Use(CacheMiddleware)
		r.Route("/organizations/{organizationID}/things", func(r chi.Router) {
			r.Use(guards.RequireAuthenticated, guards.RequireOrganization)
			r.With(guardFor(guards)).Get("/", func(w http.ResponseWriter, req *http.Request) {
				httpx.OK(w, nil)
			})
		})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, run(func(g Guards) func(http.Handler) http.Handler {
		return g.RequireAnyPermission(PermUsersWrite, PermUsersRead)
	}))
	require.Equal(t, http.StatusForbidden, run(func(g Guards) func(http.Handler) http.Handler {
		return g.RequireAnyPermission(PermUsersWrite, PermUsersDelete)
	}))
	require.Equal(t, http.StatusForbidden, run(func(g Guards) func(http.Handler) http.Handler {
		return g.RequireAllPermissions(PermUsersRead, PermUsersWrite)
	}))
	require.Equal(t, http.StatusOK, run(func(g Guards) func(http.Handler) http.Handler {
		return g.RequireAllPermissions(PermUsersRead)
	}))
}

func TestRequireOwnResource(t *testing.T) {
	guards := Guards{}

	newRouter := func(identity *auth.Identity) (chi.Router, *bool) {
		reached := false
		r := chi.NewRouter()
		r.Use(identityMiddleware(identity))
		r.With(guards.RequireOwnResource("userID")).Get("/users/{userID}/profile", func(w http.ResponseWriter, req *http.Request) {
			reached = true
			httpx.OK(w, nil)
		})
		return r, &reached
	}

	router, reached := newRouter(&auth.Identity{UserID: "user-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/user-1/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *reached)

	router, reached = newRouter(&auth.Identity{UserID: "user-1"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/user-2/profile", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, *reached)

	router, reached = newRouter(nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/user-1/profile", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
}

func TestRequireOwnOrganization(t *testing.T) {
	guards := Guards{}

	newRouter := func(identity *auth.Identity) *chi.Mux {
		r := chi.NewRouter()
		r.Use(identityMiddleware(identity))
		r.With(guards.RequireOwnOrganization("organizationID")).Get("/organizations/{organizationID}/settings", func(w http.ResponseWriter, req *http.Request) {
			httpx.OK(w, nil)
		})
		return r
	}

	rec := httptest.NewRecorder()
	newRouter(&auth.Identity{UserID: "user-1", OrganizationID: "org-1"}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(&auth.Identity{UserID: "user-1", OrganizationID: "org-1"}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-2/settings", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Identity without organization context cannot match any organization.
	rec = httptest.NewRecorder()
	newRouter(&auth.Identity{UserID: "user-1"}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/settings", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

// Resolver results must not leak across requests: a role change between two
// requests is visible on the second one.
func TestPermissionChangeVisibleOnNextRequest(t *testing.T) {
	store := &stubMembershipStore{records: map[string]*MembershipRecord{
		"user-1:org-1": memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead}, nil),
	}}
	guards := Guards{Resolver: NewMembershipResolver(store)}

	r := chi.NewRouter()
	r.Use(identityMiddleware(&auth.Identity{UserID: "user-1"}))
	r.Use(CacheMiddleware)
	r.Route("/organizations/{organizationID}/things", func(r chi.Router) {
		r.Use(guards.RequireAuthenticated, guards.RequireOrganization)
		r.With(guards.RequirePermission(PermUsersWrite)).Get("/", func(w http.ResponseWriter, req *http.Request) {
			httpx.OK(w, nil)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	store.records["user-1:org-1"] = memberRecord("user-1", "org-1", []PermissionKey{PermUsersRead, PermUsersWrite}, nil)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizations/org-1/things", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
