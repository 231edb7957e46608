// Package users manages user accounts and their external identity reference.
package users

import "time"

// User represents a user account. ExternalID references the account in the
// upstream identity provider; this service never talks to the provider
// directly.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	ExternalID string    `json:"externalId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
