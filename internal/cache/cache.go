package cache

import (
	"context"
	"time"
)

// StockCache memoizes the derived current-stock figure between writes.
// Stock itself is always a fold over the ledgers; the cache only spares
// re-reading both collections on every dashboard poll.
type StockCache interface {
	GetStock(ctx context.Context) (float64, bool, error)
	SetStock(ctx context.Context, liters float64, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopStockCache struct{}

func (NoopStockCache) GetStock(_ context.Context) (float64, bool, error) {
	return 0, false, nil
}

func (NoopStockCache) SetStock(_ context.Context, _ float64, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context) error {
	return nil
}
