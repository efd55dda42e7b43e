package finance

import (
	"go.uber.org/fx"

	"github.com/farmsaathi/farmsaathi/internal/finance/repository"
	"github.com/farmsaathi/farmsaathi/internal/finance/service"
)

var Module = fx.Module("finance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
