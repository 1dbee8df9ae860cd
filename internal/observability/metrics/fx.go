package metrics

import (
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(NewMeterProvider),
	fx.Provide(func(cfg Config, provider *sdkmetric.MeterProvider) (*HTTPMetrics, error) {
		return NewHTTPMetrics(cfg, provider)
	}),
	fx.Provide(Pipeline),
)
