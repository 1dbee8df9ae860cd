// Package bypass guards the automated-test escape hatch. The e2e suite sets
// a cookie that skips rate limiting and access control; honoring a bare
// cookie name in any environment would be an open door, so the guard
// requires both a non-production environment and knowledge of a secret
// token whose argon2id hash is part of the deployment config.
package bypass

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"golang.org/x/crypto/argon2"
)

const (
	// CookieName carries the plaintext bypass token.
	CookieName = "guardiao-e2e-bypass"
	// DevCookieName is the separate developer bypass; it needs no token
	// but is only honored in development.
	DevCookieName = "guardiao-dev-bypass"
)

type Guard struct {
	production bool
	tokenHash  string
}

func NewGuard(cfg config.Config) *Guard {
	return &Guard{
		production: cfg.IsProduction(),
		tokenHash:  strings.TrimSpace(cfg.Bypass.TokenHash),
	}
}

// Allows reports whether the presented token unlocks the e2e bypass.
// Always false in production and when no hash is configured.
func (g *Guard) Allows(token string) bool {
	if g == nil || g.production || g.tokenHash == "" {
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	return verifyToken(token, g.tokenHash)
}

const (
	hashTime    uint32 = 1
	hashMemory  uint32 = 64 * 1024
	hashThreads uint8  = 4
	hashLength  uint32 = 32
)

// HashToken produces the encoded argon2id hash for a bypass token, in the
// format Allows expects from the deployment config.
func HashToken(token string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(token), salt, hashTime, hashMemory, hashThreads, hashLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemory, hashTime, hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyToken checks a plaintext token against an encoded argon2id hash of
// the form $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
func verifyToken(token, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return false
	}

	var memory uint32
	var timeCost uint32
	var threads uint8
	{
		params := strings.Split(parts[3], ",")
		if len(params) != 3 {
			return false
		}

		m, ok := strings.CutPrefix(params[0], "m=")
		if !ok {
			return false
		}
		t, ok := strings.CutPrefix(params[1], "t=")
		if !ok {
			return false
		}
		p, ok := strings.CutPrefix(params[2], "p=")
		if !ok {
			return false
		}

		m64, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			return false
		}
		t64, err := strconv.ParseUint(t, 10, 32)
		if err != nil {
			return false
		}
		p64, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return false
		}

		memory = uint32(m64)
		timeCost = uint32(t64)
		threads = uint8(p64)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	check := argon2.IDKey([]byte(token), salt, timeCost, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}
