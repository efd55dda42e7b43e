package service

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/farm/domain"
	obsmetrics "github.com/farmsaathi/farmsaathi/internal/observability/metrics"
)

// The three ledgered stores share one implementation; only the entity
// kind differs.
type (
	CropService      = Store[domain.Crop, *domain.Crop]
	LivestockService = Store[domain.Livestock, *domain.Livestock]
	InventoryService = Store[domain.InventoryItem, *domain.InventoryItem]
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Poster   domain.Poster          `optional:"true"`
	Activity activitydomain.Service `optional:"true"`
	Metrics  *obsmetrics.Metrics    `optional:"true"`
}

func NewCropService(p Params) *CropService {
	return newStore[domain.Crop, *domain.Crop](p.DB, p.Log, p.GenID, p.Poster, p.Activity, p.Metrics, "crops")
}

func NewLivestockService(p Params) *LivestockService {
	return newStore[domain.Livestock, *domain.Livestock](p.DB, p.Log, p.GenID, p.Poster, p.Activity, p.Metrics, "livestock")
}

func NewInventoryService(p Params) *InventoryService {
	return newStore[domain.InventoryItem, *domain.InventoryItem](p.DB, p.Log, p.GenID, p.Poster, p.Activity, p.Metrics, "inventory")
}
