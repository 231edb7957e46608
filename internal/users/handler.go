package users

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

// Handler manages user endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guards.RequireAuthenticated)

	// Provisioning is called by the BFF right after sign-in, before the user
	// has any organization context.
	r.Post("/provision", h.provisionUser)

	// Own-profile access needs no organization membership, only identity.
	r.With(h.guards.RequireOwnResource("userID")).Get("/{userID}/profile", h.getProfile)

	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermUsersRead)).Get("/", h.listUsers)
		r.With(h.guards.RequirePermission(rbac.PermUsersRead)).Get("/external/{externalID}", h.getUserByExternalID)
		r.With(h.guards.RequirePermission(rbac.PermUsersRead)).Get("/{userID}", h.getUser)
		r.With(h.guards.RequirePermission(rbac.PermUsersWrite)).Post("/", h.createUser)
		r.With(h.guards.RequirePermission(rbac.PermUsersWrite)).Patch("/{userID}", h.updateUser)
		r.With(h.guards.RequirePermission(rbac.PermUsersDelete)).Delete("/{userID}", h.deleteUser)
	})
}

type createUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"max=200"`
	ExternalID string `json:"externalId" validate:"max=200"`
}

type updateUserRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name" validate:"max=200"`
}

type provisionUserRequest struct {
	ExternalID string `json:"externalId" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"max=200"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	result, total, err := h.service.ListUsers(r.Context(), page)
	if err != nil {
		h.respondErr(w, "list users", err)
		return
	}
	meta := shared.NewPagination(page.Page, page.Limit, total)
	httpx.JSON(w, http.StatusOK, httpx.Paginated{
		Data:       result,
		Pagination: httpx.PageMeta{Page: meta.Page, Limit: meta.Limit, Total: meta.Total, TotalPages: meta.TotalPages},
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondErr(w, "get user", err)
		return
	}
	httpx.OK(w, user)
}

func (h *Handler) getUserByExternalID(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUserByExternalID(r.Context(), chi.URLParam(r, "externalID"))
	if err != nil {
		h.respondErr(w, "get user by external id", err)
		return
	}
	httpx.OK(w, user)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondErr(w, "get profile", err)
		return
	}
	httpx.OK(w, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Name, req.ExternalID)
	if err != nil {
		h.respondErr(w, "create user", err)
		return
	}
	httpx.Created(w, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req.Email, req.Name)
	if err != nil {
		h.respondErr(w, "update user", err)
		return
	}
	httpx.OK(w, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		h.respondErr(w, "delete user", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) provisionUser(w http.ResponseWriter, r *http.Request) {
	var req provisionUserRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, created, err := h.service.GetOrCreateUser(r.Context(), req.ExternalID, req.Email, req.Name)
	if err != nil {
		h.respondErr(w, "provision user", err)
		return
	}
	if created {
		httpx.Created(w, user)
		return
	}
	httpx.OK(w, user)
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
