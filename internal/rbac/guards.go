package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pozial/pozial-api/internal/auth"
	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// Guards bundles the authorization middleware attached to routes. Guards
// compose in the order they are declared on a route group; the first failure
// writes the response and stops the chain, so later guards can rely on the
// context state earlier ones attached.
type Guards struct {
	Resolver *MembershipResolver
	Logger   *slog.Logger
	Audit    *shared.AuditLogger
}

// RequireAuthenticated rejects requests without a verified identity.
func (g Guards) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFromContext(r.Context()); !ok {
			g.fail(r, "", httpx.ErrUnauthorized)
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOrganization resolves the caller's membership in the target
// organization and attaches it to the request context. The organization id is
// taken from the organizationID path parameter, then the organizationId query
// parameter, then the x-organization-id header.
func (g Guards) RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			g.fail(r, "", httpx.ErrUnauthorized)
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		organizationID := chi.URLParam(r, "organizationID")
		if organizationID == "" {
			organizationID = r.URL.Query().Get("organizationId")
		}
		if organizationID == "" {
			organizationID = r.Header.Get(auth.HeaderOrganizationID)
		}
		if organizationID == "" {
			err := fmt.Errorf("%w: organization id is required", httpx.ErrBadRequest)
			g.fail(r, identity.UserID, err)
			httpx.RespondError(w, err)
			return
		}

		cache := CacheFromContext(r.Context())
		var resolved *ResolvedMembership
		if cache != nil {
			resolved, _ = cache.Get(identity.UserID, organizationID)
		}
		if resolved == nil {
			var err error
			resolved, err = g.Resolver.Resolve(r.Context(), identity.UserID, organizationID)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("resolve membership", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if resolved == nil {
				failure := fmt.Errorf("%w: you are not a member of this organization", httpx.ErrForbidden)
				g.fail(r, identity.UserID, failure)
				httpx.RespondError(w, failure)
				return
			}
			if cache != nil {
				cache.Set(identity.UserID, organizationID, resolved)
			}
		}

		next.ServeHTTP(w, r.WithContext(ContextWithMembership(r.Context(), resolved)))
	})
}

// RequirePermission requires that a prior RequireOrganization attached a
// membership holding the given permission.
func (g Guards) RequirePermission(key PermissionKey) func(http.Handler) http.Handler {
	return g.requirePerms(func(perms PermissionSet) error {
		if !perms.Has(key) {
			return fmt.Errorf("%w: missing required permission: %s", httpx.ErrForbidden, key)
		}
		return nil
	})
}

// RequireAnyPermission passes when the membership holds at least one of the
// given permissions.
func (g Guards) RequireAnyPermission(keys ...PermissionKey) func(http.Handler) http.Handler {
	return g.requirePerms(func(perms PermissionSet) error {
		if !perms.HasAny(keys...) {
			return fmt.Errorf("%w: missing required permissions: %s", httpx.ErrForbidden, joinKeys(keys))
		}
		return nil
	})
}

// RequireAllPermissions passes only when the membership holds every one of
// the given permissions.
func (g Guards) RequireAllPermissions(keys ...PermissionKey) func(http.Handler) http.Handler {
	return g.requirePerms(func(perms PermissionSet) error {
		if !perms.HasAll(keys...) {
			return fmt.Errorf("%w: missing required permissions: %s", httpx.ErrForbidden, joinKeys(keys))
		}
		return nil
	})
}

func (g Guards) requirePerms(check func(PermissionSet) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				g.fail(r, "", httpx.ErrUnauthorized)
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			resolved := MembershipFromContext(r.Context())
			if resolved == nil {
				err := fmt.Errorf("%w: organization membership required", httpx.ErrForbidden)
				g.fail(r, identity.UserID, err)
				httpx.RespondError(w, err)
				return
			}
			if err := check(resolved.Permissions); err != nil {
				g.fail(r, identity.UserID, err)
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnResource compares the named path parameter against the
// authenticated user's own id. Mismatches are always logged for audit.
func (g Guards) RequireOwnResource(paramName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				g.fail(r, "", httpx.ErrUnauthorized)
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			pathUserID := chi.URLParam(r, paramName)
			if pathUserID == "" {
				err := fmt.Errorf("%w: missing %s in route parameters", httpx.ErrForbidden, paramName)
				g.fail(r, identity.UserID, err)
				httpx.RespondError(w, err)
				return
			}
			if pathUserID != identity.UserID {
				g.ownershipMismatch(r, identity, "user", pathUserID)
				err := fmt.Errorf("%w: cannot access other users' resources", httpx.ErrForbidden)
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnOrganization compares the named path parameter against the
// organization carried by the verified identity.
func (g Guards) RequireOwnOrganization(paramName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				g.fail(r, "", httpx.ErrUnauthorized)
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			pathOrgID := chi.URLParam(r, paramName)
			if pathOrgID == "" {
				err := fmt.Errorf("%w: missing %s in route parameters", httpx.ErrForbidden, paramName)
				g.fail(r, identity.UserID, err)
				httpx.RespondError(w, err)
				return
			}
			if identity.OrganizationID == "" {
				err := fmt.Errorf("%w: no organization context available", httpx.ErrForbidden)
				g.fail(r, identity.UserID, err)
				httpx.RespondError(w, err)
				return
			}
			if pathOrgID != identity.OrganizationID {
				g.ownershipMismatch(r, identity, "organization", pathOrgID)
				err := fmt.Errorf("%w: cannot access other organizations' resources", httpx.ErrForbidden)
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guards) fail(r *http.Request, userID string, err error) {
	if g.Logger == nil {
		return
	}
	g.Logger.Warn("guard rejected request",
		slog.String("user_id", userID),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
}

func (g Guards) ownershipMismatch(r *http.Request, identity auth.Identity, kind, requested string) {
	if g.Logger != nil {
		g.Logger.Warn("attempted access to another "+kind+"'s resource",
			slog.String("authenticated_user_id", identity.UserID),
			slog.String("authenticated_organization_id", identity.OrganizationID),
			slog.String("requested_id", requested),
			slog.String("path", r.URL.Path))
	}
	if g.Audit != nil {
		_ = g.Audit.Record(r.Context(), shared.AuditLog{
			ActorID:  identity.UserID,
			Action:   shared.AuditActionOwnershipMismatch,
			Entity:   kind,
			EntityID: requested,
			Meta: map[string]any{
				"path":            r.URL.Path,
				"organization_id": identity.OrganizationID,
			},
		})
	}
}

func joinKeys(keys []PermissionKey) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += string(k)
	}
	return out
}
