package ratelimit

import (
	"context"
	"time"
)

// Store keeps fixed-window counters per identifier. Implementations must
// make Incr atomic per key: concurrent requests for the same identifier may
// not lose increments.
type Store interface {
	// Incr opens a window for key when none is active (or the active one
	// expired) and counts this request against it. It returns the count
	// after this request and the window boundary.
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (count int, resetAt time.Time, err error)

	// Sweep drops every window whose boundary passed before now and
	// returns how many entries were removed. Stores whose backend expires
	// keys on its own may treat this as a no-op.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
