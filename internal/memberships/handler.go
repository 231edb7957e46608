package memberships

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/rbac"
	"github.com/pozial/pozial-api/internal/shared"
)

// Handler manages membership endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guards   rbac.Guards
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guards rbac.Guards) *Handler {
	return &Handler{logger: logger, service: service, guards: guards, validate: validator.New()}
}

// MountRoutes registers membership item routes; mount on the /memberships
// subtree. The organization context comes from the query parameter or the
// x-organization-id header.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{membershipID}", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermMembershipsRead)).Get("/", h.getMembership)
		r.With(h.guards.RequirePermission(rbac.PermMembershipsWrite)).Patch("/", h.updateMembership)
		r.With(h.guards.RequirePermission(rbac.PermMembershipsDelete)).Delete("/", h.deleteMembership)
	})
}

// MountOrgRoutes registers org-scoped member routes; mount on the
// /organizations subtree.
func (h *Handler) MountOrgRoutes(r chi.Router) {
	r.Route("/{organizationID}/memberships", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermMembershipsRead)).Get("/", h.listByOrganization)
		r.With(h.guards.RequirePermission(rbac.PermMembershipsWrite)).Post("/", h.createMembership)
	})
}

// MountUserRoutes registers the own-memberships listing; mount on the /users
// subtree. Users may only list their own memberships.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.With(h.guards.RequireOwnResource("userID")).Get("/{userID}/memberships", h.listByUser)
}

type createMembershipRequest struct {
	UserID string  `json:"userId" validate:"required,uuid4"`
	RoleID *string `json:"roleId" validate:"omitempty,uuid4"`
}

type updateMembershipRequest struct {
	RoleID *string `json:"roleId" validate:"omitempty,uuid4"`
}

func (h *Handler) getMembership(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMembership(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		h.respondErr(w, "get membership", err)
		return
	}
	httpx.OK(w, m)
}

func (h *Handler) listByOrganization(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	result, total, err := h.service.ListByOrganization(r.Context(), chi.URLParam(r, "organizationID"), page)
	if err != nil {
		h.respondErr(w, "list organization memberships", err)
		return
	}
	meta := shared.NewPagination(page.Page, page.Limit, total)
	httpx.JSON(w, http.StatusOK, httpx.Paginated{
		Data:       result,
		Pagination: httpx.PageMeta{Page: meta.Page, Limit: meta.Limit, Total: meta.Total, TotalPages: meta.TotalPages},
	})
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	result, total, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userID"), page)
	if err != nil {
		h.respondErr(w, "list user memberships", err)
		return
	}
	meta := shared.NewPagination(page.Page, page.Limit, total)
	httpx.JSON(w, http.StatusOK, httpx.Paginated{
		Data:       result,
		Pagination: httpx.PageMeta{Page: meta.Page, Limit: meta.Limit, Total: meta.Total, TotalPages: meta.TotalPages},
	})
}

func (h *Handler) createMembership(w http.ResponseWriter, r *http.Request) {
	var req createMembershipRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.CreateMembership(r.Context(), req.UserID, chi.URLParam(r, "organizationID"), req.RoleID)
	if err != nil {
		h.respondErr(w, "create membership", err)
		return
	}
	httpx.Created(w, m)
}

func (h *Handler) updateMembership(w http.ResponseWriter, r *http.Request) {
	var req updateMembershipRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.UpdateMembership(r.Context(), chi.URLParam(r, "membershipID"), req.RoleID)
	if err != nil {
		h.respondErr(w, "update membership", err)
		return
	}
	httpx.OK(w, m)
}

func (h *Handler) deleteMembership(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMembership(r.Context(), chi.URLParam(r, "membershipID")); err != nil {
		h.respondErr(w, "delete membership", err)
		return
	}
	httpx.NoContent(w)
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
