package activity

import (
	"go.uber.org/fx"

	"github.com/farmsaathi/farmsaathi/internal/activity/service"
)

var Module = fx.Module("activity.service",
	fx.Provide(service.New),
)
