package logger

import (
	"context"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	obsctx "github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the process logger: human-readable in development, JSON
// elsewhere. It also replaces the zap globals so FromContext works without
// plumbing the logger through every call site.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsDevelopment() {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// FromContext returns the global logger annotated with the request id and,
// when a span is recording, the trace and span ids.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}
	if requestID := obsctx.RequestIDFromContext(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		log = log.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return log
}

var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)
