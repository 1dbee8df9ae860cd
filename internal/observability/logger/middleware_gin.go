package logger

import (
	"strings"
	"time"

	obsctx "github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/context"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-Id"

type MiddlewareConfig struct {
	// Node generates request ids; a private node is created when nil.
	Node *snowflake.Node
	// SkipPaths are logged at debug instead of info (health checks).
	SkipPaths []string
}

// GinMiddleware stamps every request with an id and writes one access-log
// line per request. Credentials in headers are masked, never dropped
// silently, so a debug session can still see that they were present.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	node := cfg.Node
	if node == nil {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		node = n
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = node.Generate().String()
		}

		ctx := obsctx.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("request_id", requestID)
		c.Writer.Header().Set(headerRequestID, requestID)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if userID := obsctx.UserIDFromContext(c.Request.Context()); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if auth := c.GetHeader("Authorization"); auth != "" {
			fields = append(fields, zap.String("authorization", MaskAuthorization(auth)))
		}
		if cookies := c.GetHeader("Cookie"); cookies != "" {
			fields = append(fields, zap.String("cookie", MaskCookie(cookies)))
		}

		log := FromContext(c.Request.Context())
		if _, ok := skip[c.Request.URL.Path]; ok {
			log.Debug("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
