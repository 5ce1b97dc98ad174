package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
)

type fakeSource struct {
	products   []domain.Product
	currencies []domain.CurrencyConfig
	calls      int
	err        error
}

func (f *fakeSource) Products(context.Context) ([]domain.Product, error) {
	f.calls++
	return f.products, f.err
}

func (f *fakeSource) Categories(context.Context) ([]domain.Category, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeSource) SubCategories(context.Context) ([]domain.SubCategory, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeSource) Currencies(context.Context) ([]domain.CurrencyConfig, error) {
	f.calls++
	return f.currencies, f.err
}

func setupMirror(t *testing.T, source Source) (*Mirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewMirror(source, client, time.Minute, l), mr
}

func TestMirror_SecondReadServedFromCache(t *testing.T) {
	source := &fakeSource{products: []domain.Product{
		{ID: 1, Name: "ebook", Price: decimal.NewFromInt(20), Kind: domain.ProductDigital},
	}}
	m, _ := setupMirror(t, source)
	ctx := context.Background()

	first, err := m.Products(ctx)
	require.NoError(t, err)
	second, err := m.Products(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestMirror_ExpiredEntryRefetches(t *testing.T) {
	source := &fakeSource{currencies: []domain.CurrencyConfig{
		{Code: "PHP", Rate: decimal.NewFromInt(58), Precision: 2, Default: true},
	}}
	m, mr := setupMirror(t, source)
	ctx := context.Background()

	_, err := m.Currencies(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = m.Currencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestMirror_CacheDownDegradesToDirectRead(t *testing.T) {
	source := &fakeSource{products: []domain.Product{{ID: 9, Name: "kit"}}}
	m, mr := setupMirror(t, source)

	mr.Close()

	products, err := m.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestMirror_CatalogErrorSurfaces(t *testing.T) {
	source := &fakeSource{err: errors.New("catalog down")}
	m, _ := setupMirror(t, source)

	_, err := m.Products(context.Background())
	assert.Error(t, err)
}

func TestMirror_InvalidateForcesRefetch(t *testing.T) {
	source := &fakeSource{products: []domain.Product{{ID: 1}}}
	m, _ := setupMirror(t, source)
	ctx := context.Background()

	_, err := m.Products(ctx)
	require.NoError(t, err)

	m.Invalidate(ctx, "products")

	_, err = m.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
