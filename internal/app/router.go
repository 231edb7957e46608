package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pozial/pozial-api/internal/auth"
	"github.com/pozial/pozial-api/internal/billing"
	"github.com/pozial/pozial-api/internal/memberships"
	"github.com/pozial/pozial-api/internal/orgs"
	"github.com/pozial/pozial-api/internal/rbac"
	"github.com/pozial/pozial-api/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthMiddleware     *auth.Middleware
	UsersHandler       *users.Handler
	OrgsHandler        *orgs.Handler
	MembershipsHandler *memberships.Handler
	RBACHandler        *rbac.Handler
	BillingHandler     *billing.Handler
}

// NewRouter constructs the chi.Router with Pozial defaults. Several handlers
// contribute routes under shared prefixes, so each prefix is declared once
// here and the handlers mount into it.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Auth:   params.AuthMiddleware,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
			params.MembershipsHandler.MountUserRoutes(r)
		})

		r.Route("/organizations", func(r chi.Router) {
			params.OrgsHandler.MountRoutes(r)
			params.RBACHandler.MountOrgRoleRoutes(r)
			params.MembershipsHandler.MountOrgRoutes(r)
			params.BillingHandler.MountOrgRoutes(r)
		})

		r.Route("/memberships", func(r chi.Router) {
			params.MembershipsHandler.MountRoutes(r)
			params.RBACHandler.MountMembershipGrantRoutes(r)
		})

		r.Route("/roles", params.RBACHandler.MountRoleRoutes)
		r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
		r.Route("/invoices", params.BillingHandler.MountRoutes)
	})

	return r
}
