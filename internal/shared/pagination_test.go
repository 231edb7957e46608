package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageRequestDefaults(t *testing.T) {
	page := ParsePageRequest(httptest.NewRequest("GET", "/", nil))
	require.Equal(t, DefaultPage, page.Page)
	require.Equal(t, DefaultLimit, page.Limit)
}

func TestParsePageRequestBounds(t *testing.T) {
	page := ParsePageRequest(httptest.NewRequest("GET", "/?page=3&limit=50", nil))
	require.Equal(t, 3, page.Page)
	require.Equal(t, 50, page.Limit)
	require.Equal(t, 100, page.Offset())

	page = ParsePageRequest(httptest.NewRequest("GET", "/?page=-1&limit=5000", nil))
	require.Equal(t, DefaultPage, page.Page)
	require.Equal(t, MaxLimit, page.Limit)

	page = ParsePageRequest(httptest.NewRequest("GET", "/?page=abc&limit=xyz", nil))
	require.Equal(t, DefaultPage, page.Page)
	require.Equal(t, DefaultLimit, page.Limit)
}

func TestNewPagination(t *testing.T) {
	meta := NewPagination(2, 20, 45)
	require.Equal(t, 3, meta.TotalPages)

	meta = NewPagination(1, 20, 0)
	require.Zero(t, meta.TotalPages)

	meta = NewPagination(1, 20, 20)
	require.Equal(t, 1, meta.TotalPages)
}
