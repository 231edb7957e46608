package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

func newTestMiddleware() Middleware {
	return Middleware{Verifier: NewVerifier(testSecret)}
}

func echoIdentityHandler(t *testing.T, called *bool, want *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		identity, ok := IdentityFromContext(r.Context())
		if want == nil {
			require.False(t, ok)
			return
		}
		require.True(t, ok)
		require.Equal(t, *want, identity)
	})
}

func TestMiddlewarePassesThroughWithoutHeaders(t *testing.T) {
	m := newTestMiddleware()
	var called bool
	handler := m.Handler(echoIdentityHandler(t, &called, nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareAttachesVerifiedIdentity(t *testing.T) {
	m := newTestMiddleware()
	want := Identity{UserID: "user-1", OrganizationID: "org-1"}
	var called bool
	handler := m.Handler(echoIdentityHandler(t, &called, &want))

	ts := time.Now().UnixMilli()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderOrganizationID, "org-1")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, m.Verifier.Sign("user-1", "org-1", ts))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareRejectsInvalidSignature(t *testing.T) {
	m := newTestMiddleware()
	var called bool
	handler := m.Handler(echoIdentityHandler(t, &called, nil))

	ts := time.Now().UnixMilli()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, "deadbeef")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "Unauthorized", body.Error)
}

func TestMiddlewareRejectsStaleTimestamp(t *testing.T) {
	m := newTestMiddleware()
	var called bool
	handler := m.Handler(echoIdentityHandler(t, &called, nil))

	ts := time.Now().Add(-MaxAssertionAge - time.Second).UnixMilli()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, m.Verifier.Sign("user-1", "", ts))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
