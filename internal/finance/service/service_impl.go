package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/finance/domain"
	"github.com/farmsaathi/farmsaathi/internal/finance/repository"
	obsmetrics "github.com/farmsaathi/farmsaathi/internal/observability/metrics"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    repository.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    repository.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("finance.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Record appends one entry to the financial ledger. Managers may only
// post rows they own; admins may post on behalf of another owner. When
// the source reference already has a record, the stored record's id is
// returned and nothing is written.
func (s *Service) Record(ctx context.Context, actor principal.Principal, entry domain.FinancialRecord) (snowflake.ID, error) {
	if !actor.Valid() {
		return 0, domain.ErrInvalidActor
	}
	if entry.CreatedBy == 0 {
		entry.CreatedBy = actor.ID
	}
	if entry.CreatedBy != actor.ID && !actor.Privileged() {
		return 0, domain.ErrForbiddenOwner
	}

	entry.Category = strings.TrimSpace(entry.Category)
	if entry.Category == "" {
		return 0, domain.ErrInvalidRecord
	}
	if entry.Type != domain.RecordIncome && entry.Type != domain.RecordExpense {
		return 0, domain.ErrInvalidRecord
	}
	if entry.Amount <= 0 {
		return 0, domain.ErrInvalidRecord
	}
	if entry.TransactionDate.IsZero() {
		return 0, domain.ErrInvalidRecord
	}

	entry.ID = s.genID.Generate()
	entry.CreatedAt = time.Now().UTC()
	if entry.SourceType == "" {
		// Hand-entered rows self-reference so the source uniqueness
		// constraint never sees colliding blanks.
		entry.SourceType = domain.SourceManual
		entry.SourceID = entry.ID
		entry.SourceEventIndex = 0
	}

	inserted, err := s.repo.InsertIdempotent(ctx, s.db, &entry)
	if err != nil {
		return 0, err
	}
	if inserted {
		return entry.ID, nil
	}

	existing, err := s.repo.FindBySource(ctx, s.db, entry.SourceType, entry.SourceID, entry.SourceEventIndex)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		// Lost a race with a concurrent delete we do not support;
		// treat as invalid rather than inventing a record.
		return 0, domain.ErrInvalidRecord
	}
	s.metrics.RecordPosting(obsmetrics.PostingResultDuplicate)
	s.log.Info("financial record already posted for source",
		zap.String("source_type", entry.SourceType),
		zap.String("source_id", entry.SourceID.String()),
		zap.Int("source_event_index", entry.SourceEventIndex),
	)
	return existing.ID, nil
}

func (s *Service) List(ctx context.Context, actor principal.Principal, req domain.ListRequest) (domain.ListResponse, error) {
	if !actor.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 250 {
		req.PageSize = 250
	}

	records, err := s.repo.List(ctx, s.db, actor, req)
	if err != nil {
		return domain.ListResponse{}, err
	}

	records, pageInfo := pagination.BuildPageInfo(records, req.PageSize, func(record domain.FinancialRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	return domain.ListResponse{PageInfo: pageInfo, Records: records}, nil
}

func (s *Service) Summarize(ctx context.Context, actor principal.Principal, from, to time.Time) (domain.Summary, error) {
	if !actor.Valid() {
		return domain.Summary{}, domain.ErrInvalidActor
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return domain.Summary{}, domain.ErrInvalidRange
	}
	return s.repo.Summarize(ctx, s.db, actor, from, to)
}
