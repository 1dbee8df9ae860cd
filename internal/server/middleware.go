package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	obsctx "github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/context"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/pipeline"
)

const contextUserIDKey = "auth.user_id"

// Gatekeeper runs the security pipeline for every request and translates
// its outcome into the HTTP response. Refreshed session cookies are written
// unconditionally, even when the request is redirected or rejected.
func (s *Server) Gatekeeper() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := s.pipeline.Handle(c.Request.Context(), c.Request)

		for _, cookie := range res.Cookies {
			http.SetCookie(c.Writer, cookie)
		}
		for key, values := range res.Outcome.Headers {
			for _, v := range values {
				c.Writer.Header().Add(key, v)
			}
		}

		if res.Session != nil {
			ctx := obsctx.WithUserID(c.Request.Context(), res.Session.User.ID)
			c.Request = c.Request.WithContext(ctx)
			c.Set(contextUserIDKey, res.Session.User.ID)
		}

		switch res.Outcome.Kind {
		case pipeline.OutcomeRedirect:
			c.Redirect(http.StatusTemporaryRedirect, res.Outcome.RedirectTo)
			c.Abort()
		case pipeline.OutcomeReject:
			c.AbortWithStatusJSON(res.Outcome.Status, res.Outcome.Body)
		default:
			c.Next()
		}
	}
}

// UserID returns the authenticated user for the current request, when the
// pipeline resolved one.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
