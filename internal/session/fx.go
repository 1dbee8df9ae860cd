package session

import "go.uber.org/fx"

var Module = fx.Module("session",
	fx.Provide(
		fx.Annotate(NewClient, fx.As(new(Refresher))),
	),
)
