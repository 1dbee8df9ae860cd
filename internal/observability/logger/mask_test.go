package logger

import (
	"testing"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/session"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAuthorizationBareToken(t *testing.T) {
	if got := MaskAuthorization("abcdef1234"); got != "****1234" {
		t.Fatalf("got %q", got)
	}
	if got := MaskAuthorization("  "); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskCookie(t *testing.T) {
	got := MaskCookie("gn-access-token=abcdef1234; other=xyz")
	want := "gn-access-token=****1234; other=****xyz"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskCookieSessionPair(t *testing.T) {
	got := MaskCookie(session.AccessTokenCookie + "=eyJhbGciOi5678; " + session.RefreshTokenCookie + "=v1.rot4ted9012")
	want := session.AccessTokenCookie + "=****5678; " + session.RefreshTokenCookie + "=****9012"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
