package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/logger"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/metrics"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/pipeline"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/session"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/webhook"
)

// Server owns the gin engine and the HTTP edge of the application.
type Server struct {
	cfg       config.Config
	log       *zap.Logger
	engine    *gin.Engine
	pipeline  *pipeline.Pipeline
	webhooks  *webhook.Service
	refresher session.Refresher
}

type Params struct {
	fx.In

	Cfg       config.Config
	Log       *zap.Logger
	Engine    *gin.Engine
	Pipeline  *pipeline.Pipeline
	Webhooks  *webhook.Service
	Refresher session.Refresher
}

func NewEngine(cfg config.Config, node *snowflake.Node, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Node:      node,
		SkipPaths: []string{"/healthz"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:       p.Cfg,
		log:       p.Log,
		engine:    p.Engine,
		pipeline:  p.Pipeline,
		webhooks:  p.Webhooks,
		refresher: p.Refresher,
	}
}

// RegisterRoutes installs the gatekeeper and the routes the edge serves
// itself. Everything else falls through to NoRoute after passing the
// gatekeeper.
func (s *Server) RegisterRoutes() {
	s.engine.Use(s.Gatekeeper())

	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/auth/callback", s.AuthCallback)
	s.engine.POST("/api/webhooks/:provider", s.ReceiveWebhook)

	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)
