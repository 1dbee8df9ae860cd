package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/bypass"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/ratelimit"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/session"
	"go.uber.org/zap"
)

type stubRefresher struct {
	result session.Result
	err    error
}

func (s stubRefresher) Refresh(context.Context, *http.Request) (session.Result, error) {
	return s.result, s.err
}

func (s stubRefresher) ExchangeCode(context.Context, string) (session.Result, error) {
	return s.result, s.err
}

func authenticated(userID string) stubRefresher {
	return stubRefresher{result: session.Result{Session: &session.Session{User: session.User{ID: userID}}}}
}

func newTestPipeline(t *testing.T, cfg config.Config, refresher session.Refresher) (*Pipeline, *clock.Fixed) {
	t.Helper()
	clk := &clock.Fixed{Current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := New(Params{
		Config:    cfg,
		Refresher: refresher,
		Limiter:   ratelimit.NewService(ratelimit.NewMemoryStore(), zap.NewNop()),
		Catalog:   ratelimit.DefaultCatalog(),
		Guard:     bypass.NewGuard(cfg),
		Clock:     clk,
		Log:       zap.NewNop(),
	})
	return p, clk
}

func testCfg(env string) config.Config {
	return config.Config{Environment: env}
}

func get(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestProtectedWithoutSessionRedirects(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	res := p.Handle(context.Background(), get("/dashboard"))
	if res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("outcome = %+v, want redirect", res.Outcome)
	}
	if res.Outcome.RedirectTo != "/login" {
		t.Fatalf("redirect to %q, want /login", res.Outcome.RedirectTo)
	}
}

func TestLoginPassesThroughWithoutSession(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	res := p.Handle(context.Background(), get("/login"))
	if res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("outcome = %+v, want continue (no redirect loop)", res.Outcome)
	}
}

func TestProtectedWithSessionPasses(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), authenticated("user-1"))

	res := p.Handle(context.Background(), get("/dashboard"))
	if res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("outcome = %+v, want continue", res.Outcome)
	}
	if res.Session == nil || res.Session.User.ID != "user-1" {
		t.Fatalf("session = %+v", res.Session)
	}
}

func TestDevBypassCookieOnlyInDevelopment(t *testing.T) {
	r := get("/dashboard")
	r.AddCookie(&http.Cookie{Name: bypass.DevCookieName, Value: "true"})

	dev, _ := newTestPipeline(t, testCfg(config.EnvDevelopment), stubRefresher{})
	if res := dev.Handle(context.Background(), r); res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("development: outcome = %+v, want continue", res.Outcome)
	}

	prod, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})
	if res := prod.Handle(context.Background(), r); res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("production: outcome = %+v, want redirect", res.Outcome)
	}
}

func TestRefreshFailureFailsOpenButAccessGateHolds(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{err: errors.New("auth down")})

	// Public path still served.
	if res := p.Handle(context.Background(), get("/")); res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("public outcome = %+v", res.Outcome)
	}

	// Protected path still redirects: the access gate is never skipped.
	if res := p.Handle(context.Background(), get("/dashboard")); res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("protected outcome = %+v, want redirect", res.Outcome)
	}
}

func TestRefreshCookiesPropagate(t *testing.T) {
	refresher := stubRefresher{result: session.Result{
		Session: &session.Session{User: session.User{ID: "user-1"}},
		Cookies: []*http.Cookie{{Name: session.AccessTokenCookie, Value: "rotated"}},
	}}
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), refresher)

	res := p.Handle(context.Background(), get("/dashboard"))
	if len(res.Cookies) != 1 || res.Cookies[0].Value != "rotated" {
		t.Fatalf("cookies = %+v", res.Cookies)
	}
}

func TestAPIFirstCheckoutCallHeaders(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), authenticated("user-1"))

	res := p.Handle(context.Background(), get("/api/checkout"))
	if res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("outcome = %+v", res.Outcome)
	}
	if got := res.Outcome.Headers.Get("X-RateLimit-Limit"); got != "10" {
		t.Fatalf("limit header = %q, want 10", got)
	}
	if got := res.Outcome.Headers.Get("X-RateLimit-Remaining"); got != "9" {
		t.Fatalf("remaining header = %q, want 9", got)
	}
	if res.Outcome.Headers.Get("Retry-After") != "" {
		t.Fatalf("allowed response must not carry Retry-After")
	}
}

func TestAPIOverLimitRejects(t *testing.T) {
	p, clk := newTestPipeline(t, testCfg(config.EnvProduction), authenticated("user-1"))

	for i := 0; i < 10; i++ {
		if res := p.Handle(context.Background(), get("/api/checkout")); res.Outcome.Kind != OutcomeContinue {
			t.Fatalf("call %d: outcome = %+v", i+1, res.Outcome)
		}
	}

	clk.Advance(time.Second)
	res := p.Handle(context.Background(), get("/api/checkout"))
	if res.Outcome.Kind != OutcomeReject {
		t.Fatalf("outcome = %+v, want reject", res.Outcome)
	}
	if res.Outcome.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", res.Outcome.Status)
	}
	if res.Outcome.Body.Error != "Too many requests" {
		t.Fatalf("body = %+v", res.Outcome.Body)
	}
	if res.Outcome.Body.RetryAfter != 59 {
		t.Fatalf("retryAfter = %d, want 59", res.Outcome.Body.RetryAfter)
	}
	if got := res.Outcome.Headers.Get("Retry-After"); got != "59" {
		t.Fatalf("Retry-After = %q, want 59", got)
	}
	if got := res.Outcome.Headers.Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("remaining = %q, want 0", got)
	}
	reset := res.Outcome.Headers.Get("X-RateLimit-Reset")
	if _, err := time.Parse(time.RFC3339, reset); err != nil {
		t.Fatalf("reset header %q is not RFC3339: %v", reset, err)
	}
}

func TestAPIBucketsAreIndependentPerUser(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), authenticated("user-1"))

	// Drain the billing portal bucket (5/min).
	for i := 0; i < 5; i++ {
		p.Handle(context.Background(), get("/api/billing-portal"))
	}
	if res := p.Handle(context.Background(), get("/api/billing-portal")); res.Outcome.Kind != OutcomeReject {
		t.Fatalf("billing portal should be exhausted, got %+v", res.Outcome)
	}

	// The default bucket for the same user is untouched.
	res := p.Handle(context.Background(), get("/api/warranties"))
	if res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("default bucket outcome = %+v", res.Outcome)
	}
	if got := res.Outcome.Headers.Get("X-RateLimit-Remaining"); got != "99" {
		t.Fatalf("remaining = %q, want 99", got)
	}
}

func TestAnonymousAPIKeyedByForwardedAddress(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	first := get("/api/billing-portal")
	first.Header.Set("X-Forwarded-For", "1.2.3.4")
	for i := 0; i < 5; i++ {
		p.Handle(context.Background(), first)
	}
	if res := p.Handle(context.Background(), first); res.Outcome.Kind != OutcomeReject {
		t.Fatalf("first address should be exhausted, got %+v", res.Outcome)
	}

	second := get("/api/billing-portal")
	second.Header.Set("X-Forwarded-For", "5.6.7.8")
	if res := p.Handle(context.Background(), second); res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("second address must have its own budget, got %+v", res.Outcome)
	}
}

func TestLoginOverLimitRedirectsWithParams(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	r := get("/login")
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	for i := 0; i < 5; i++ {
		if res := p.Handle(context.Background(), r); res.Outcome.Kind != OutcomeContinue {
			t.Fatalf("attempt %d: outcome = %+v", i+1, res.Outcome)
		}
	}

	res := p.Handle(context.Background(), r)
	if res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("outcome = %+v, want redirect", res.Outcome)
	}
	target, err := url.Parse(res.Outcome.RedirectTo)
	if err != nil {
		t.Fatalf("redirect url: %v", err)
	}
	if target.Path != "/login" {
		t.Fatalf("redirect path = %q", target.Path)
	}
	if target.Query().Get("error") != "rate_limit" {
		t.Fatalf("redirect query = %q", target.RawQuery)
	}
	if target.Query().Get("message") == "" {
		t.Fatalf("redirect must carry a user-facing message")
	}
	if len(res.Outcome.Headers) != 0 {
		t.Fatalf("redirects must not carry rate-limit headers, got %v", res.Outcome.Headers)
	}
}

func TestRateLimitRedirectDoesNotLoop(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	r := get("/login")
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	for i := 0; i < 6; i++ {
		p.Handle(context.Background(), r)
	}

	// The redirected request carries error=rate_limit and must pass.
	redirected := get("/login?error=rate_limit&message=Muitas+tentativas")
	redirected.Header.Set("X-Forwarded-For", "1.2.3.4")
	for i := 0; i < 3; i++ {
		res := p.Handle(context.Background(), redirected)
		if res.Outcome.Kind != OutcomeContinue {
			t.Fatalf("delivery %d: outcome = %+v, want continue", i+1, res.Outcome)
		}
	}
}

func TestSignupUsesItsOwnBudget(t *testing.T) {
	p, _ := newTestPipeline(t, testCfg(config.EnvProduction), stubRefresher{})

	r := get("/signup")
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	for i := 0; i < 3; i++ {
		if res := p.Handle(context.Background(), r); res.Outcome.Kind != OutcomeContinue {
			t.Fatalf("attempt %d: outcome = %+v", i+1, res.Outcome)
		}
	}
	if res := p.Handle(context.Background(), r); res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("4th signup attempt should redirect, got %+v", res.Outcome)
	}

	// Login budget for the same address is untouched.
	login := get("/login")
	login.Header.Set("X-Forwarded-For", "1.2.3.4")
	if res := p.Handle(context.Background(), login); res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("login outcome = %+v", res.Outcome)
	}
}

func TestE2EBypassSkipsLimitingAndAccess(t *testing.T) {
	cfg := testCfg(config.EnvTest)
	cfg.Bypass.TokenHash = bypassHashForTest("e2e-token")
	p, _ := newTestPipeline(t, cfg, stubRefresher{})

	r := get("/dashboard")
	r.AddCookie(&http.Cookie{Name: bypass.CookieName, Value: "e2e-token"})
	if res := p.Handle(context.Background(), r); res.Outcome.Kind != OutcomeContinue {
		t.Fatalf("outcome = %+v, want continue", res.Outcome)
	}

	// Bypass also skips API limiting: drain well past the budget.
	api := get("/api/billing-portal")
	api.AddCookie(&http.Cookie{Name: bypass.CookieName, Value: "e2e-token"})
	for i := 0; i < 20; i++ {
		if res := p.Handle(context.Background(), api); res.Outcome.Kind != OutcomeContinue {
			t.Fatalf("call %d: outcome = %+v", i+1, res.Outcome)
		}
	}

	// A wrong token gets no special treatment.
	wrong := get("/dashboard")
	wrong.AddCookie(&http.Cookie{Name: bypass.CookieName, Value: "guess"})
	if res := p.Handle(context.Background(), wrong); res.Outcome.Kind != OutcomeRedirect {
		t.Fatalf("wrong token outcome = %+v, want redirect", res.Outcome)
	}
}
