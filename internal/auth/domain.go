// Package auth verifies signed identity assertions issued by the upstream BFF.
//
// The BFF authenticates end users against the primary identity provider and
// forwards requests with HMAC-signed headers. This package never talks to the
// identity provider itself: it only checks that the asserted identity was
// signed with the shared service secret and is fresh enough to not be a replay.
package auth

import "time"

// Header names carrying the signed identity assertion.
const (
	HeaderUserID         = "x-user-id"
	HeaderOrganizationID = "x-organization-id"
	HeaderTimestamp      = "x-timestamp"
	HeaderSignature      = "x-signature"
)

// Replay window policy. An assertion older than MaxAssertionAge or more than
// MaxClockSkew in the future is rejected regardless of its signature.
const (
	MaxAssertionAge = 5 * time.Minute
	MaxClockSkew    = 1 * time.Minute
)

// Assertion is the raw signed identity extracted from request headers.
// It is ephemeral and never persisted.
type Assertion struct {
	UserID         string
	OrganizationID string
	Timestamp      string
	Signature      string
}

// Identity is the verified identity attached to the request context.
type Identity struct {
	UserID         string
	OrganizationID string
}
