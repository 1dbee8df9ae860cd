package ratelimit

import (
	"net/http"
	"strings"
)

const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-Ip"
)

// ResolveIdentifier derives the limiter partition key for a request.
// Authenticated users are keyed by identity so shared NATs do not starve
// each other and switching addresses does not reset a user's budget.
// Anonymous traffic falls back to the client address. It never fails: the
// worst case is the shared "ip:unknown" bucket.
func ResolveIdentifier(r *http.Request, userID string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "ip:" + clientAddress(r)
}

func clientAddress(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	if forwarded := r.Header.Get(headerForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	if addr := strings.TrimSpace(r.Header.Get(headerRealIP)); addr != "" {
		return addr
	}
	return "unknown"
}
