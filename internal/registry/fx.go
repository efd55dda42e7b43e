package registry

import (
	"go.uber.org/fx"

	"github.com/farmsaathi/farmsaathi/internal/registry/service"
)

var Module = fx.Module("registry.service",
	fx.Provide(
		service.NewEmployeeService,
		service.NewEquipmentService,
	),
)
