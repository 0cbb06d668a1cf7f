package cart

import (
	"context"
	"time"

	"rentgear/internal/domain"
)

// CatalogReader is the read-only equipment catalog consumed by the store.
// The store snapshots prices at add time and never writes back.
type CatalogReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
}

// Scheduler owns the store's timers. Both methods return a cancel
// function; canceling an already-fired or canceled timer is a no-op.
type Scheduler interface {
	Repeat(interval time.Duration, fn func()) (cancel func())
	Once(delay time.Duration, fn func()) (cancel func())
}
