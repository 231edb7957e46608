// Package billing holds the invoice placeholder. Persistence is in-memory
// until a payment provider integration lands.
package billing

import "time"

// Invoice statuses.
const (
	StatusDraft = "draft"
	StatusOpen  = "open"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

// Invoice is a billing document scoped to an organization.
type Invoice struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}
