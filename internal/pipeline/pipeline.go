// Package pipeline implements the per-request security pipeline: session
// refresh, rate limiting and the access policy, composed in a fixed order.
// Session refresh and the limiter fail open; the access gate at the end is
// authoritative and never skipped by an earlier failure.
package pipeline

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/bypass"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/metrics"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/ratelimit"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	rateLimitErrorParam = "rate_limit"

	msgTooManyRequests = "Muitas requisições. Tente novamente em alguns instantes."
	msgAuthRateLimited = "Muitas tentativas. Aguarde alguns minutos antes de tentar novamente."
)

type Params struct {
	fx.In

	Config    config.Config
	Refresher session.Refresher
	Limiter   *ratelimit.Service
	Catalog   ratelimit.Catalog
	Guard     *bypass.Guard
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.PipelineMetrics `optional:"true"`
}

type Pipeline struct {
	refresher   session.Refresher
	limiter     *ratelimit.Service
	catalog     ratelimit.Catalog
	guard       *bypass.Guard
	clk         clock.Clock
	log         *zap.Logger
	metrics     *metrics.PipelineMetrics
	development bool
}

func New(p Params) *Pipeline {
	return &Pipeline{
		refresher:   p.Refresher,
		limiter:     p.Limiter,
		catalog:     p.Catalog,
		guard:       p.Guard,
		clk:         p.Clock,
		log:         p.Log.Named("pipeline"),
		metrics:     p.Metrics,
		development: p.Config.IsDevelopment(),
	}
}

// Result is what the transport layer applies to the response: cookies
// first, then the outcome. Session, when present, is exposed to downstream
// handlers.
type Result struct {
	Outcome Outcome
	Cookies []*http.Cookie
	Session *session.Session
}

// Handle runs the pipeline for one request. It never returns an error: every
// input maps to a terminal outcome.
func (p *Pipeline) Handle(ctx context.Context, r *http.Request) Result {
	now := p.clk.Now()
	res := Result{Outcome: Continue()}

	refreshed, err := p.refresher.Refresh(ctx, r)
	switch {
	case err != nil:
		// Auth being down must not take the product down with it.
		p.log.Warn("session refresh failed, proceeding unauthenticated", zap.Error(err))
		p.metrics.RecordRefresh("failed")
	case refreshed.Session != nil:
		res.Session = refreshed.Session
		res.Cookies = refreshed.Cookies
		p.metrics.RecordRefresh("authenticated")
	default:
		res.Cookies = refreshed.Cookies
		p.metrics.RecordRefresh("anonymous")
	}

	if p.guard.Allows(cookieValue(r, bypass.CookieName)) {
		return res
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, apiPrefix):
		res.Outcome = p.limitAPI(ctx, r, res.Session, now)
		return res
	case strings.HasPrefix(path, loginPath), strings.HasPrefix(path, signupPath):
		if outcome, limited := p.limitAuthRoute(ctx, r, res.Session, now); limited {
			res.Outcome = outcome
			return res
		}
	}

	res.Outcome = p.enforceAccess(r, res.Session)
	return res
}

func (p *Pipeline) limitAPI(ctx context.Context, r *http.Request, sess *session.Session, now time.Time) Outcome {
	category := ratelimit.CategoryForAPIPath(r.URL.Path)
	dec := p.limiter.Check(ctx, scopedIdentifier(category, r, sess), p.catalog.For(category), now)
	p.metrics.RecordDecision(string(category), dec.Allowed)

	headers := rateLimitHeaders(dec)
	if dec.Allowed {
		return ContinueWith(headers)
	}

	retryAfter := dec.RetryAfterSeconds(now)
	headers.Set("Retry-After", strconv.Itoa(retryAfter))
	return Reject(http.StatusTooManyRequests, RejectBody{
		Error:      "Too many requests",
		Message:    msgTooManyRequests,
		RetryAfter: retryAfter,
	}, headers)
}

// limitAuthRoute throttles login and signup attempts. A request already
// redirected here with error=rate_limit is passed through untouched so the
// redirect cannot loop.
func (p *Pipeline) limitAuthRoute(ctx context.Context, r *http.Request, sess *session.Session, now time.Time) (Outcome, bool) {
	if r.URL.Query().Get("error") == rateLimitErrorParam {
		return Outcome{}, false
	}

	category := ratelimit.CategoryLogin
	if strings.HasPrefix(r.URL.Path, signupPath) {
		category = ratelimit.CategorySignup
	}

	dec := p.limiter.Check(ctx, scopedIdentifier(category, r, sess), p.catalog.For(category), now)
	p.metrics.RecordDecision(string(category), dec.Allowed)
	if dec.Allowed {
		return Outcome{}, false
	}

	p.metrics.RecordRedirect("rate_limit")
	redirect := *r.URL
	query := redirect.Query()
	query.Set("error", rateLimitErrorParam)
	query.Set("message", msgAuthRateLimited)
	redirect.RawQuery = query.Encode()
	return Redirect(redirect.String()), true
}

// enforceAccess is the final authorization gate: protected paths require a
// session (or the development bypass); everything else passes.
func (p *Pipeline) enforceAccess(r *http.Request, sess *session.Session) Outcome {
	if Classify(r.URL.Path) != KindProtected {
		return Continue()
	}
	if sess != nil {
		return Continue()
	}
	if p.development && cookieValue(r, bypass.DevCookieName) == "true" {
		return Continue()
	}
	p.metrics.RecordRedirect("unauthenticated")
	return Redirect(loginAbsPath)
}

// scopedIdentifier prefixes the identifier with its category so exhausting
// one bucket never drains another for the same client.
func scopedIdentifier(category ratelimit.Category, r *http.Request, sess *session.Session) string {
	userID := ""
	if sess != nil {
		userID = sess.User.ID
	}
	return string(category) + ":" + ratelimit.ResolveIdentifier(r, userID)
}

func rateLimitHeaders(dec ratelimit.Decision) http.Header {
	headers := http.Header{}
	headers.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
	headers.Set("X-RateLimit-Reset", dec.ResetAt.UTC().Format(time.RFC3339))
	return headers
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
