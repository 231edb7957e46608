package billing

import (
	"context"
	"fmt"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*Invoice, error)
	FindByOrganization(ctx context.Context, organizationID string) ([]Invoice, error)
	Create(ctx context.Context, organizationID string, amount float64, currency string) (Invoice, error)
}

// Service handles billing business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetInvoice fetches an invoice by ID.
func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv == nil {
		return Invoice{}, fmt.Errorf("%w: invoice not found", httpx.ErrNotFound)
	}
	return *inv, nil
}

// ListInvoices returns all invoices for an organization.
func (s *Service) ListInvoices(ctx context.Context, organizationID string) ([]Invoice, error) {
	return s.repo.FindByOrganization(ctx, organizationID)
}

// CreateInvoice opens a new draft invoice.
func (s *Service) CreateInvoice(ctx context.Context, organizationID string, amount float64, currency string) (Invoice, error) {
	return s.repo.Create(ctx, organizationID, amount, currency)
}
