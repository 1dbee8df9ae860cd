package bypass

import "go.uber.org/fx"

var Module = fx.Module("bypass",
	fx.Provide(NewGuard),
)
