package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/bypass"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/logger"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/metrics"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/observability/tracing"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/pipeline"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/ratelimit"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/server"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/session"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/webhook"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		bypass.Module,
		ratelimit.Module,
		session.Module,
		pipeline.Module,
		webhook.Module,
		server.Module,
	)
	app.Run()
}
