package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/logger"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/webhook"
)

const maxWebhookBody = 1 << 20

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AuthCallback completes the PKCE login flow: it trades the one-time code
// for a session and sends the browser back into the app with cookies set.
func (s *Server) AuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, "/login?error=auth_callback")
		return
	}

	res, err := s.refresher.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("code exchange failed", zap.Error(err))
		c.Redirect(http.StatusTemporaryRedirect, "/login?error=auth_callback")
		return
	}

	for _, cookie := range res.Cookies {
		http.SetCookie(c.Writer, cookie)
	}
	c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
}

// ReceiveWebhook verifies and records a provider event. Redeliveries are
// acknowledged with 200 so the provider stops retrying.
func (s *Server) ReceiveWebhook(c *gin.Context) {
	provider := c.Param("provider")

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrBadRequest)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Webhook-Signature")
	}

	event, err := s.webhooks.Ingest(c.Request.Context(), provider, payload, signature)
	if errors.Is(err, webhook.ErrDuplicateEvent) {
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "id": event.EventID})
}
