package session

import (
	"context"
	"errors"
	"net/http"
)

const (
	// Cookie names the web client and the edge agree on.
	AccessTokenCookie  = "gn-access-token"
	RefreshTokenCookie = "gn-refresh-token"
)

// User is the slice of the auth service identity the pipeline needs.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	User User
}

// Result carries the refreshed session plus any cookies the response must
// set. Cookies are present only when tokens were rotated.
type Result struct {
	Session *Session
	Cookies []*http.Cookie
}

// Refresher validates or refreshes a session from request cookies. An
// anonymous request is not an error: Refresh returns an empty Result.
// Errors mean the auth service could not be consulted; the caller decides
// what that implies (the pipeline fails open).
type Refresher interface {
	Refresh(ctx context.Context, r *http.Request) (Result, error)
	ExchangeCode(ctx context.Context, code string) (Result, error)
}

var (
	ErrNotConfigured = errors.New("session: auth service not configured")
	ErrUnauthorized  = errors.New("session: token rejected")
	ErrUnavailable   = errors.New("session: auth service unavailable")
)
