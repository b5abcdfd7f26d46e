package ports

import (
	"context"
	"time"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// RateCache stores formatted per-carrier rate lists under destination- and
// weight-sensitive keys. It is a pure accelerator: a missing or failing cache
// changes latency and live-API call volume, never correctness. Entries are
// immutable once written and simply expire.
type RateCache interface {
	// Get returns the cached rates for key, or nil on a miss. Lookup errors
	// are returned for logging but callers treat them as misses.
	Get(ctx context.Context, key string) ([]domain.FormattedRate, error)
	Set(ctx context.Context, key string, rates []domain.FormattedRate, ttl time.Duration) error
}
