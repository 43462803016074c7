package cache

import (
	"context"
	"time"
)

// TotalsCache fronts the today-sales display string the dashboard polls on
// every refresh, so repeated reads do not rescan the sale ledger.
type TotalsCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// NoopTotalsCache is used when no Redis is configured; every read falls
// through to the repository.
type NoopTotalsCache struct{}

func (NoopTotalsCache) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (NoopTotalsCache) Set(_ context.Context, _ string, _ string, _ time.Duration) error {
	return nil
}

func (NoopTotalsCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
