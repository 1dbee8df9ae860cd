package bypass

import (
	"testing"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
)

func encodeToken(t *testing.T, token string) string {
	t.Helper()
	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	return hash
}

func guardFor(env, tokenHash string) *Guard {
	return NewGuard(config.Config{
		Environment: env,
		Bypass:      config.BypassConfig{TokenHash: tokenHash},
	})
}

func TestAllowsMatchingToken(t *testing.T) {
	guard := guardFor(config.EnvTest, encodeToken(t, "s3cret"))
	if !guard.Allows("s3cret") {
		t.Fatalf("expected matching token to pass")
	}
}

func TestRejectsWrongToken(t *testing.T) {
	guard := guardFor(config.EnvTest, encodeToken(t, "s3cret"))
	if guard.Allows("nope") {
		t.Fatalf("wrong token must not pass")
	}
	if guard.Allows("") {
		t.Fatalf("empty token must not pass")
	}
}

func TestNeverAllowsInProduction(t *testing.T) {
	guard := guardFor(config.EnvProduction, encodeToken(t, "s3cret"))
	if guard.Allows("s3cret") {
		t.Fatalf("production must ignore the bypass cookie")
	}
}

func TestRejectsWithoutConfiguredHash(t *testing.T) {
	guard := guardFor(config.EnvTest, "")
	if guard.Allows("anything") {
		t.Fatalf("missing hash must disable the bypass")
	}
}

func TestRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA",
	} {
		guard := guardFor(config.EnvTest, encoded)
		if guard.Allows("s3cret") {
			t.Fatalf("malformed hash %q must not pass", encoded)
		}
	}
}
