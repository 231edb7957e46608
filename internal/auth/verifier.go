package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

// Verifier checks HMAC-SHA256 identity assertions against the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier. The secret is injected once at process
// start and treated as immutable.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ExtractAssertion reads the assertion headers from a request. It returns
// false only when every required header is absent, meaning the request is
// simply unauthenticated. A partial set of headers is returned as-is so that
// verification rejects it: half an assertion is indistinguishable from a
// forged one.
func ExtractAssertion(h http.Header) (Assertion, bool) {
	a := Assertion{
		UserID:         h.Get(HeaderUserID),
		OrganizationID: h.Get(HeaderOrganizationID),
		Timestamp:      h.Get(HeaderTimestamp),
		Signature:      h.Get(HeaderSignature),
	}
	if a.UserID == "" && a.Timestamp == "" && a.Signature == "" {
		return Assertion{}, false
	}
	return a, true
}

// Verify validates the assertion signature and freshness at the given time.
// Every failure collapses to httpx.ErrUnauthorized: callers must not be able
// to probe which part of the check failed.
func (v *Verifier) Verify(a Assertion, now time.Time) (Identity, error) {
	if a.UserID == "" {
		return Identity{}, httpx.ErrUnauthorized
	}
	ts, err := strconv.ParseInt(a.Timestamp, 10, 64)
	if err != nil {
		return Identity{}, httpx.ErrUnauthorized
	}

	nowMillis := now.UnixMilli()
	if nowMillis-ts > MaxAssertionAge.Milliseconds() {
		return Identity{}, httpx.ErrUnauthorized
	}
	if ts-nowMillis > MaxClockSkew.Milliseconds() {
		return Identity{}, httpx.ErrUnauthorized
	}

	expected := v.sign(a.UserID, a.OrganizationID, a.Timestamp)
	provided, err := hex.DecodeString(a.Signature)
	if err != nil {
		return Identity{}, httpx.ErrUnauthorized
	}
	if len(provided) != len(expected) {
		return Identity{}, httpx.ErrUnauthorized
	}
	if !hmac.Equal(provided, expected) {
		return Identity{}, httpx.ErrUnauthorized
	}

	return Identity{UserID: a.UserID, OrganizationID: a.OrganizationID}, nil
}

// Sign produces the hex signature the BFF would attach for the given identity
// and timestamp. Exposed for test fixtures and local tooling.
func (v *Verifier) Sign(userID, organizationID string, timestampMillis int64) string {
	return hex.EncodeToString(v.sign(userID, organizationID, strconv.FormatInt(timestampMillis, 10)))
}

// sign computes HMAC-SHA256 over the canonical payload. The timestamp is used
// exactly as received: re-formatting it would break signatures produced with
// leading zeros or whitespace-free variants.
func (v *Verifier) sign(userID, organizationID, timestamp string) []byte {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s:%s:%s", userID, organizationID, timestamp)
	return mac.Sum(nil)
}
