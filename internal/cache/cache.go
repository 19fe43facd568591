package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

// Store - хранилище сырых байтов с TTL; реализации: memory, redis, postgres.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// ResultCache сериализует итоговые результаты поиска в JSON поверх Store.
type ResultCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewResultCache(store Store, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{store: store, ttl: ttl, logger: logger}
}

func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]domain.EnrichedResult, bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", domain.ErrCacheUnavailable, key, err)
	}
	if !ok {
		return nil, false, nil
	}

	var results []domain.EnrichedResult
	if err := json.Unmarshal(raw, &results); err != nil {
		// битую запись считаем промахом, следующий успешный запрос её перезапишет
		c.logger.Warn("cached value is not valid json, ignoring",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false, nil
	}
	if results == nil {
		results = []domain.EnrichedResult{}
	}
	return results, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, results []domain.EnrichedResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("%w: set %q: %v", domain.ErrCacheUnavailable, key, err)
	}
	return nil
}

func (c *ResultCache) Close() error {
	return c.store.Close()
}
