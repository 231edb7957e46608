package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

func TestCreateInvoiceStartsAsDraft(t *testing.T) {
	svc := NewService(NewRepository())

	inv, err := svc.CreateInvoice(context.Background(), "org-1", 120.50, "USD")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
	require.NotEmpty(t, inv.ID)

	got, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
}

func TestGetInvoiceNotFound(t *testing.T) {
	svc := NewService(NewRepository())
	_, err := svc.GetInvoice(context.Background(), "inv_missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListInvoicesScopedToOrganization(t *testing.T) {
	svc := NewService(NewRepository())
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, "org-1", 10, "USD")
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, "org-1", 20, "USD")
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, "org-2", 30, "EUR")
	require.NoError(t, err)

	invoices, err := svc.ListInvoices(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	invoices, err = svc.ListInvoices(ctx, "org-3")
	require.NoError(t, err)
	require.Empty(t, invoices)
}
