package session

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/cache"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/tracing"
	"go.uber.org/zap"
)

// Client talks to the hosted auth service. Every call is bounded by the
// configured timeout; the pipeline treats any error as "no session".
type Client struct {
	baseURL       string
	apiKey        string
	http          *http.Client
	log           *zap.Logger
	userCache     cache.Cache[string, User]
	cacheTTL      time.Duration
	secureCookies bool
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	var userCache cache.Cache[string, User] = cache.Noop[string, User]{}
	if cfg.Auth.CacheTTL > 0 {
		userCache = cache.NewTTLCache[string, User]()
	}
	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.Auth.ServiceURL), "/"),
		apiKey:        strings.TrimSpace(cfg.Auth.ServiceKey),
		http:          tracing.WrapHTTPClient(&http.Client{Timeout: cfg.Auth.Timeout}),
		log:           log.Named("session"),
		userCache:     userCache,
		cacheTTL:      cfg.Auth.CacheTTL,
		secureCookies: cfg.IsProduction(),
	}
}

func (c *Client) configured() bool { return c.baseURL != "" && c.apiKey != "" }

// Refresh validates the access token from the request cookies, falling back
// to the refresh token when the access token is missing or rejected. Rotated
// tokens come back as cookies the response must carry.
func (c *Client) Refresh(ctx context.Context, r *http.Request) (Result, error) {
	if !c.configured() {
		return Result{}, ErrNotConfigured
	}

	accessToken := cookieValue(r, AccessTokenCookie)
	refreshToken := cookieValue(r, RefreshTokenCookie)
	if accessToken == "" && refreshToken == "" {
		return Result{}, nil
	}

	if accessToken != "" {
		user, err := c.lookupUser(ctx, accessToken)
		if err == nil {
			return Result{Session: &Session{User: user}}, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return Result{}, err
		}
		// Expired access token; fall through to the refresh grant.
	}

	if refreshToken == "" {
		return Result{}, nil
	}
	return c.refreshGrant(ctx, refreshToken)
}

// ExchangeCode trades the one-time callback code for a session. Used only by
// the dedicated auth callback route.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Result, error) {
	if !c.configured() {
		return Result{}, ErrNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Result{}, ErrUnauthorized
	}
	return c.tokenRequest(ctx, "pkce", map[string]string{"auth_code": code})
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (Result, error) {
	return c.tokenRequest(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

func (c *Client) tokenRequest(ctx context.Context, grantType string, payload map[string]string) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", c.baseURL, grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return Result{}, ErrUnauthorized
	default:
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&token); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if token.AccessToken == "" || token.User.ID == "" {
		return Result{}, ErrUnauthorized
	}

	c.cacheUser(token.AccessToken, token.User)
	return Result{
		Session: &Session{User: token.User},
		Cookies: c.sessionCookies(token),
	}, nil
}

func (c *Client) lookupUser(ctx context.Context, accessToken string) (User, error) {
	cacheKey := tokenDigest(accessToken)
	if user, ok := c.userCache.Get(cacheKey); ok {
		return user, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	c.authorize(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return User{}, ErrUnauthorized
	default:
		return User{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if user.ID == "" {
		return User{}, ErrUnauthorized
	}

	c.userCache.Set(cacheKey, user, c.cacheTTL)
	return user, nil
}

func (c *Client) authorize(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func (c *Client) cacheUser(accessToken string, user User) {
	c.userCache.Set(tokenDigest(accessToken), user, c.cacheTTL)
}

func (c *Client) sessionCookies(token tokenResponse) []*http.Cookie {
	maxAge := token.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	return []*http.Cookie{
		{
			Name:     AccessTokenCookie,
			Value:    token.AccessToken,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   c.secureCookies,
			SameSite: http.SameSiteLaxMode,
		},
		{
			Name:     RefreshTokenCookie,
			Value:    token.RefreshToken,
			Path:     "/",
			MaxAge:   30 * 24 * 3600,
			HttpOnly: true,
			Secure:   c.secureCookies,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Tokens are cached under their digest so the raw value never sits in the
// cache map.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
