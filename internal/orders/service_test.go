package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

type fakeCatalog struct {
	orders []domain.Order
	err    error
}

func (f *fakeCatalog) FindOrdersByEmail(context.Context, string) ([]domain.Order, error) {
	return f.orders, f.err
}

func newTestService(cat *fakeCatalog) *Service {
	return NewService(cat, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestHistory_NewestFirst(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeCatalog{orders: []domain.Order{
		{ID: 1, ExternalRef: "order-1", CreatedAt: older},
		{ID: 2, ExternalRef: "order-2", CreatedAt: newer},
	}})

	got, err := svc.History(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "order-2", got[0].ExternalRef)
	assert.Equal(t, "order-1", got[1].ExternalRef)
}

func TestHistory_NoOrdersIsEmptyList(t *testing.T) {
	svc := newTestService(&fakeCatalog{})

	got, err := svc.History(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistory_EmptyEmailRejected(t *testing.T) {
	svc := newTestService(&fakeCatalog{})

	_, err := svc.History(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestHistory_CatalogErrorSurfaces(t *testing.T) {
	svc := newTestService(&fakeCatalog{err: errors.New("catalog down")})

	_, err := svc.History(context.Background(), "alice@example.com")
	assert.Error(t, err)
}
