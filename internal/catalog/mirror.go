package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geloski43/edcommerce/internal/domain"
)

const mirrorKeyPrefix = "catalog:"

// Source is the subset of the catalog client the mirror reads through.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	SubCategories(ctx context.Context) ([]domain.SubCategory, error)
	Currencies(ctx context.Context) ([]domain.CurrencyConfig, error)
}

// Mirror is a read-through Redis cache over the catalog collections. Cache
// failures degrade to direct catalog reads; the catalog stays the source of
// truth.
type Mirror struct {
	source Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewMirror creates a mirror with the given cache TTL.
func NewMirror(source Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Mirror {
	return &Mirror{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// readThrough fills dst from cache when possible, otherwise fetches with load
// and caches the result. Cache errors are logged, never surfaced.
func readThrough[T any](ctx context.Context, m *Mirror, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	fullKey := mirrorKeyPrefix + key

	data, err := m.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		var cached []T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		m.logger.WarnContext(ctx, "corrupt mirror entry, refetching",
			slog.String("key", fullKey),
		)
	} else if err != redis.Nil {
		m.logger.WarnContext(ctx, "mirror read failed, falling back to catalog",
			slog.String("key", fullKey),
			slog.String("error", err.Error()),
		)
	}

	fresh, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(fresh); err == nil {
		if err := m.client.Set(ctx, fullKey, data, m.ttl).Err(); err != nil {
			m.logger.WarnContext(ctx, "mirror write failed",
				slog.String("key", fullKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return fresh, nil
}

// Products returns the mirrored product list.
func (m *Mirror) Products(ctx context.Context) ([]domain.Product, error) {
	return readThrough(ctx, m, "products", m.source.Products)
}

// Categories returns the mirrored category list.
func (m *Mirror) Categories(ctx context.Context) ([]domain.Category, error) {
	return readThrough(ctx, m, "categories", m.source.Categories)
}

// SubCategories returns the mirrored sub-category list.
func (m *Mirror) SubCategories(ctx context.Context) ([]domain.SubCategory, error) {
	return readThrough(ctx, m, "sub-categories", m.source.SubCategories)
}

// Currencies returns the mirrored currency configs.
func (m *Mirror) Currencies(ctx context.Context) ([]domain.CurrencyConfig, error) {
	return readThrough(ctx, m, "currencies", m.source.Currencies)
}

// Invalidate drops the cached copy of the named collections so the next read
// refetches. Used after sync runs mutate the catalog.
func (m *Mirror) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := m.client.Del(ctx, mirrorKeyPrefix+key).Err(); err != nil {
			m.logger.WarnContext(ctx, "mirror invalidate failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}
