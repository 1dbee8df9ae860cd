package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedSignature = errors.New("webhook: malformed signature header")
	ErrStaleTimestamp     = errors.New("webhook: signature timestamp outside tolerance")
	ErrInvalidSignature   = errors.New("webhook: signature mismatch")
)

// VerifySignature checks a signed-payload header of the form
// "t=<unix>,v1=<hex>[,v1=<hex>...]" against the provider secret. The signed
// string is "<t>.<payload>", so neither the timestamp nor the body can be
// replaced independently.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	issued := time.Unix(timestamp, 0)
	age := now.Sub(issued)
	if age < 0 {
		age = -age
	}
	if tolerance > 0 && age > tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		decoded, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (int64, []string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, ErrMalformedSignature
	}

	var (
		timestamp  int64
		hasT       bool
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, ErrMalformedSignature
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedSignature
			}
			timestamp = parsed
			hasT = true
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if !hasT || len(signatures) == 0 {
		return 0, nil, ErrMalformedSignature
	}
	return timestamp, signatures, nil
}
