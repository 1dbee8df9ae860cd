package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/webhook"
)

var (
	ErrBadRequest   = errors.New("invalid_request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)

// AbortWithError maps domain errors onto HTTP responses with a stable
// machine-readable error code.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, webhook.ErrInvalidPayload),
		errors.Is(err, webhook.ErrMalformedSignature):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, webhook.ErrInvalidSignature),
		errors.Is(err, webhook.ErrStaleTimestamp):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, webhook.ErrUnknownProvider):
		status, code = http.StatusNotFound, "not_found"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
