package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/config"
	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	registrydomain "github.com/farmsaathi/farmsaathi/internal/registry/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.MigrateOnStart {
			return nil
		}

		// The SQL migrations target postgres. Other dialects (sqlite for
		// local development, mysql) fall back to schema sync from the
		// models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&farmdomain.Crop{},
				&farmdomain.Livestock{},
				&farmdomain.InventoryItem{},
				&financedomain.FinancialRecord{},
				&activitydomain.ActivityLog{},
				&registrydomain.Employee{},
				&registrydomain.Equipment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
