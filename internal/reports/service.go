// Package reports assembles the typed report data consumed by the
// external export layer. Rendering (CSV, PDF) happens outside the
// core; this stops at numbers and rows.
package reports

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	farmservice "github.com/farmsaathi/farmsaathi/internal/farm/service"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	"github.com/farmsaathi/farmsaathi/internal/principal"
)

// Overview is the owner-scoped dashboard payload: finance totals over
// the range plus how many records of each kind the caller can see.
type Overview struct {
	Summary        financedomain.Summary           `json:"summary"`
	CropCount      int64                           `json:"crop_count"`
	LivestockCount int64                           `json:"livestock_count"`
	InventoryCount int64                           `json:"inventory_count"`
	RecentRecords  []financedomain.FinancialRecord `json:"recent_records"`
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Crops     *farmservice.CropService
	Livestock *farmservice.LivestockService
	Inventory *farmservice.InventoryService
	Finance   financedomain.Service
}

type Service struct {
	log       *zap.Logger
	crops     *farmservice.CropService
	livestock *farmservice.LivestockService
	inventory *farmservice.InventoryService
	finance   financedomain.Service
}

func New(p Params) *Service {
	return &Service{
		log:       p.Log.Named("reports.service"),
		crops:     p.Crops,
		livestock: p.Livestock,
		inventory: p.Inventory,
		finance:   p.Finance,
	}
}

func (s *Service) Overview(ctx context.Context, actor principal.Principal, from, to time.Time) (Overview, error) {
	summary, err := s.finance.Summarize(ctx, actor, from, to)
	if err != nil {
		return Overview{}, err
	}

	crops, err := s.crops.Count(ctx, actor)
	if err != nil {
		return Overview{}, err
	}
	livestock, err := s.livestock.Count(ctx, actor)
	if err != nil {
		return Overview{}, err
	}
	inventory, err := s.inventory.Count(ctx, actor)
	if err != nil {
		return Overview{}, err
	}

	recent, err := s.finance.List(ctx, actor, financedomain.ListRequest{
		From: &from,
		To:   &to,
	})
	if err != nil {
		return Overview{}, err
	}
	records := recent.Records
	if len(records) > 10 {
		records = records[:10]
	}

	return Overview{
		Summary:        summary,
		CropCount:      crops,
		LivestockCount: livestock,
		InventoryCount: inventory,
		RecentRecords:  records,
	}, nil
}

var Module = fx.Module("reports.service",
	fx.Provide(New),
)
