package farm

import (
	"go.uber.org/fx"

	"github.com/farmsaathi/farmsaathi/internal/farm/service"
)

var Module = fx.Module("farm.service",
	fx.Provide(
		service.NewCropService,
		service.NewLivestockService,
		service.NewInventoryService,
	),
)
