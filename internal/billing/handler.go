package billing

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/rbac"
)

// Handler manages billing endpoints.
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

// MountRoutes registers invoice item routes; mount on the /invoices subtree.
// The organization context comes from the query parameter or the
// x-organization-id header.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{invoiceID}", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermBillingRead)).Get("/", h.getInvoice)
	})
}

// MountOrgRoutes registers org-scoped invoice routes; mount on the
// /organizations subtree.
func (h *Handler) MountOrgRoutes(r chi.Router) {
	r.Route("/{organizationID}/invoices", func(r chi.Router) {
		r.Use(h.guards.RequireAuthenticated, h.guards.RequireOrganization)
		r.With(h.guards.RequirePermission(rbac.PermBillingRead)).Get("/", h.listInvoices)
		r.With(h.guards.RequirePermission(rbac.PermBillingInvoiceCreate)).Post("/", h.createInvoice)
	})
}

type createInvoiceRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.respondErr(w, "get invoice", err)
		return
	}
	httpx.OK(w, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListInvoices(r.Context(), chi.URLParam(r, "organizationID"))
	if err != nil {
		h.respondErr(w, "list invoices", err)
		return
	}
	httpx.OK(w, invoices)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	inv, err := h.service.CreateInvoice(r.Context(), chi.URLParam(r, "organizationID"), req.Amount, req.Currency)
	if err != nil {
		h.respondErr(w, "create invoice", err)
		return
	}
	httpx.Created(w, inv)
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
