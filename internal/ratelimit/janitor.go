package ratelimit

import (
	"context"
	"time"

	clockpkg "github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"go.uber.org/zap"
)

// Janitor periodically drops expired windows so the store does not grow
// without bound under many distinct client addresses. The interval is kept
// coarse to stay off the request path's lock.
type Janitor struct {
	store    Store
	clock    clockpkg.Clock
	log      *zap.Logger
	interval time.Duration
}

func NewJanitor(store Store, clock clockpkg.Clock, log *zap.Logger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Janitor{
		store:    store,
		clock:    clock,
		log:      log.Named("ratelimit.janitor"),
		interval: interval,
	}
}

func (j *Janitor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *Janitor) RunOnce(ctx context.Context) {
	removed, err := j.store.Sweep(ctx, j.clock.Now())
	if err != nil {
		j.log.Warn("sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		j.log.Debug("swept expired windows", zap.Int("removed", removed))
	}
}
