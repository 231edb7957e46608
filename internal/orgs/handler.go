package orgs

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

// Handler manages organization endpoints.
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

// MountRoutes registers organization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guards.RequireAuthenticated)

	// Listing and creating organizations happens before any membership
	// exists, so only identity is required.
	r.Get("/", h.listOrganizations)
	r.Post("/", h.createOrganization)

	r.Route("/{organizationID}", func(r chi.Router) {
		r.Use(h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermOrganizationsRead)).Get("/", h.getOrganization)
		r.With(h.guards.RequirePermission(rbac.PermOrganizationsWrite)).Patch("/", h.updateOrganization)
		r.With(h.guards.RequirePermission(rbac.PermOrganizationsDelete)).Delete("/", h.deleteOrganization)
	})
}

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type updateOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	result, total, err := h.service.ListOrganizations(r.Context(), page)
	if err != nil {
		h.respondErr(w, "list organizations", err)
		return
	}
	meta := shared.NewPagination(page.Page, page.Limit, total)
	httpx.JSON(w, http.StatusOK, httpx.Paginated{
		Data:       result,
		Pagination: httpx.PageMeta{Page: meta.Page, Limit: meta.Limit, Total: meta.Total, TotalPages: meta.TotalPages},
	})
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetOrganization(r.Context(), chi.URLParam(r, "organizationID"))
	if err != nil {
		h.respondErr(w, "get organization", err)
		return
	}
	httpx.OK(w, org)
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), req.Name)
	if err != nil {
		h.respondErr(w, "create organization", err)
		return
	}
	httpx.Created(w, org)
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	var req updateOrganizationRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.service.UpdateOrganization(r.Context(), chi.URLParam(r, "organizationID"), req.Name)
	if err != nil {
		h.respondErr(w, "update organization", err)
		return
	}
	httpx.OK(w, org)
}

func (h *Handler) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrganization(r.Context(), chi.URLParam(r, "organizationID")); err != nil {
		h.respondErr(w, "delete organization", err)
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
