package posting

import "go.uber.org/fx"

var Module = fx.Module("posting.service",
	fx.Provide(New),
)
