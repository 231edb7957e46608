package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

// Middleware verifies signed identity headers and attaches the resulting
// identity to the request context.
type Middleware struct {
	Verifier *Verifier
	Replay   *ReplayGuard
	Logger   *slog.Logger
	Audit    *shared.AuditLogger
}

// Handler runs signature verification before the wrapped handler.
//
// Requests without any assertion headers pass through unauthenticated; the
// guard chain decides later whether that matters for the route. Requests that
// do carry headers must verify, otherwise the request ends here with 401.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertion, ok := ExtractAssertion(r.Header)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.Verifier.Verify(assertion, time.Now())
		if err == nil && m.Replay != nil {
			err = m.Replay.Check(r.Context(), assertion.Signature)
		}
		if err != nil {
			m.rejected(r, assertion)
			httpx.RespondError(w, err)
			return
		}

		if m.Logger != nil {
			m.Logger.Debug("bff authentication successful",
				slog.String("user_id", identity.UserID),
				slog.String("organization_id", identity.OrganizationID))
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// rejected logs and audits a failed verification with enough context to
// reconstruct the decision. The response body stays undifferentiated.
func (m Middleware) rejected(r *http.Request, a Assertion) {
	if m.Logger != nil {
		m.Logger.Warn("bff authentication failed",
			slog.String("user_id", a.UserID),
			slog.String("organization_id", a.OrganizationID),
			slog.String("timestamp", a.Timestamp),
			slog.String("ip", r.RemoteAddr),
			slog.String("path", r.URL.Path))
	}
	if m.Audit != nil {
		_ = m.Audit.Record(r.Context(), shared.AuditLog{
			ActorID: a.UserID,
			Action:  shared.AuditActionAuthFailed,
			Entity:  "request",
			Meta: map[string]any{
				"organization_id": a.OrganizationID,
				"timestamp":       a.Timestamp,
				"ip":              r.RemoteAddr,
				"path":            r.URL.Path,
			},
		})
	}
}
