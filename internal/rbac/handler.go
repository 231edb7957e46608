package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

// Handler exposes the role and permission management API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guards   Guards
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guards Guards) *Handler {
	return &Handler{logger: logger, service: service, guards: guards, validate: validator.New()}
}

// MountPermissionRoutes registers the catalog listing under /permissions.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.With(h.guards.RequireAuthenticated).Get("/", h.listPermissions)
}

// MountOrgRoleRoutes registers org-scoped role collection routes; mount on
// the /organizations subtree.
func (h *Handler) MountOrgRoleRoutes(r chi.Router) {
	r.Route("/{organizationID}/roles", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(PermRolesRead)).Get("/", h.listRoles)
		r.With(h.guards.RequirePermission(PermRolesWrite)).Post("/", h.createRole)
	})
}

// MountRoleRoutes registers role item routes; mount on the /roles subtree.
// The organization context for the guard chain comes from the query parameter
// or the x-organization-id header.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Route("/{roleID}", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(PermRolesRead)).Get("/", h.getRole)
		r.With(h.guards.RequirePermission(PermRolesWrite)).Patch("/", h.updateRole)
		r.With(h.guards.RequirePermission(PermRolesDelete)).Delete("/", h.deleteRole)

		r.Route("/permissions", func(r chi.Router) {
			r.With(h.guards.RequirePermission(PermRolesRead)).Get("/", h.listRolePermissions)
			r.With(h.guards.RequirePermission(PermRolesWrite)).Post("/", h.attachRolePermissions)
			r.With(h.guards.RequirePermission(PermRolesWrite)).Delete("/", h.detachRolePermissions)
			r.With(h.guards.RequirePermission(PermRolesWrite)).Put("/", h.syncRolePermissions)
		})
	})
}

// MountMembershipGrantRoutes registers direct-grant routes; mount on the
// /memberships subtree.
func (h *Handler) MountMembershipGrantRoutes(r chi.Router) {
	r.Route("/{membershipID}/permissions", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(PermMembershipsRead)).Get("/", h.listMembershipPermissions)
		r.With(h.guards.RequirePermission(PermMembershipsWrite)).Post("/", h.attachMembershipPermissions)
		r.With(h.guards.RequirePermission(PermMembershipsWrite)).Delete("/", h.detachMembershipPermissions)
		r.With(h.guards.RequirePermission(PermMembershipsWrite)).Put("/", h.syncMembershipPermissions)
	})
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type updateRoleRequest struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type permissionIDsRequest struct {
	PermissionIDs []string `json:"permissionIds" validate:"required,min=1,dive,required"`
}

type syncPermissionIDsRequest struct {
	PermissionIDs []string `json:"permissionIds" validate:"dive,required"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.respondErr(w, "list permissions", err)
		return
	}
	httpx.OK(w, perms)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context(), chi.URLParam(r, "organizationID"))
	if err != nil {
		h.respondErr(w, "list roles", err)
		return
	}
	httpx.OK(w, roles)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), chi.URLParam(r, "organizationID"), req.Name, req.Description)
	if err != nil {
		h.respondErr(w, "create role", err)
		return
	}
	httpx.Created(w, role)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondErr(w, "get role", err)
		return
	}
	httpx.OK(w, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "roleID"), req.Name, req.Description)
	if err != nil {
		h.respondErr(w, "update role", err)
		return
	}
	httpx.OK(w, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		h.respondErr(w, "delete role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListRolePermissions(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondErr(w, "list role permissions", err)
		return
	}
	httpx.OK(w, perms)
}

func (h *Handler) attachRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AttachRolePermissions(r.Context(), chi.URLParam(r, "roleID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "attach role permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions attached successfully"})
}

func (h *Handler) detachRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DetachRolePermissions(r.Context(), chi.URLParam(r, "roleID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "detach role permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions detached successfully"})
}

func (h *Handler) syncRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req syncPermissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SyncRolePermissions(r.Context(), chi.URLParam(r, "roleID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "sync role permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions synchronized successfully"})
}

func (h *Handler) listMembershipPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListMembershipPermissions(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		h.respondErr(w, "list membership permissions", err)
		return
	}
	httpx.OK(w, perms)
}

func (h *Handler) attachMembershipPermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AttachMembershipPermissions(r.Context(), chi.URLParam(r, "membershipID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "attach membership permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions attached successfully"})
}

func (h *Handler) detachMembershipPermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DetachMembershipPermissions(r.Context(), chi.URLParam(r, "membershipID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "detach membership permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions detached successfully"})
}

func (h *Handler) syncMembershipPermissions(w http.ResponseWriter, r *http.Request) {
	var req syncPermissionIDsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SyncMembershipPermissions(r.Context(), chi.URLParam(r, "membershipID"), req.PermissionIDs); err != nil {
		h.respondErr(w, "sync membership permissions", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "Permissions synchronized successfully"})
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: invalid request body", httpx.ErrBadRequest)
	}
	if err := h.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
