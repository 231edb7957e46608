package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository keeps invoices in memory. TODO: replace with the payment
// provider integration once the Stripe account is provisioned.
type Repository struct {
	mu       sync.RWMutex
	invoices map[string]Invoice
}

// NewRepository constructs an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{invoices: make(map[string]Invoice)}
}

// FindByID returns the invoice with the given id, or (nil, nil) when absent.
func (r *Repository) FindByID(_ context.Context, id string) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

// FindByOrganization returns all invoices for an organization, newest first.
func (r *Repository) FindByOrganization(_ context.Context, organizationID string) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Invoice
	for _, inv := range r.invoices {
		if inv.OrganizationID == organizationID {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// Create stores a new draft invoice.
func (r *Repository) Create(_ context.Context, organizationID string, amount float64, currency string) (Invoice, error) {
	inv := Invoice{
		ID:             "inv_" + uuid.NewString(),
		OrganizationID: organizationID,
		Amount:         amount,
		Currency:       currency,
		Status:         StatusDraft,
		CreatedAt:      time.Now().UTC(),
	}
	r.mu.Lock()
	r.invoices[inv.ID] = inv
	r.mu.Unlock()
	return inv, nil
}
