package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		SessionID: "sess-001",
		Lines: []domain.CartLine{
			{
				ProductID: 1,
				Name:      "ebook",
				Price:     decimal.NewFromInt(20),
				Quantity:  1,
				Digital:   true,
				FileID:    "file-abc",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:sess-001", string(data)))

	got, err := repo.Get(context.Background(), "sess-001")
	require.NoError(t, err)
	assert.Equal(t, cart.SessionID, got.SessionID)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].Digital)
	assert.True(t, cart.Lines[0].Price.Equal(got.Lines[0].Price))
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Save_RoundTrip(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	cart := sampleCart()
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Get(ctx, cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cart.Lines[0].ProductID, got.Lines[0].ProductID)
}

func TestCartRepository_Save_AppliesTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	ttl := mr.TTL("cart:sess-001")
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestCartRepository_Expiry(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))
	mr.FastForward(25 * time.Hour)

	_, err := repo.Get(ctx, "sess-001")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Delete(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))
	require.NoError(t, repo.Delete(ctx, "sess-001"))

	_, err := repo.Get(ctx, "sess-001")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Delete_AbsentIsNotAnError(t *testing.T) {
	repo, _ := setupTestRedis(t)
	assert.NoError(t, repo.Delete(context.Background(), "missing"))
}
