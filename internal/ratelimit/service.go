package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Decision is the limiter verdict for one request. The request that crosses
// the budget is still counted and reported as denied.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds returns how long the client should wait, rounded up to
// whole seconds and never below 1.
func (d Decision) RetryAfterSeconds(now time.Time) int {
	wait := d.ResetAt.Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log.Named("ratelimit")}
}

// Check counts the request against the identifier's current window and
// decides whether it fits the policy budget. A store failure is logged and
// answered with an allow: the limiter bounds abuse, it must never become the
// outage itself.
func (s *Service) Check(ctx context.Context, identifier string, policy Policy, now time.Time) Decision {
	count, resetAt, err := s.store.Incr(ctx, identifier, policy.Window, now)
	if err != nil {
		s.log.Warn("limiter store failed, allowing request",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return Decision{
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests - 1,
			ResetAt:   now.Add(policy.Window),
		}
	}

	remaining := policy.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= policy.MaxRequests,
		Limit:     policy.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
