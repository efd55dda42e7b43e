package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/observability/logger"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activity.service"),
		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, actor principal.Principal, action, module, description string) {
	if !actor.Valid() {
		return
	}
	row := domain.ActivityLog{
		ID:          s.genID.Generate(),
		UserID:      actor.ID,
		Role:        string(actor.Role),
		Action:      action,
		Module:      module,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.WithActor(s.log, int64(actor.ID), string(actor.Role)).Warn("failed to write activity log",
			zap.String("action", action),
			zap.String("module", module),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, actor principal.Principal, req domain.ListRequest) (domain.ListResponse, error) {
	if !actor.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	stmt := s.db.WithContext(ctx).Model(&domain.ActivityLog{})
	// Managers see only their own trail; admins see everyone's.
	if !actor.Privileged() {
		stmt = stmt.Where("user_id = ?", actor.ID)
	}
	if req.Module != "" {
		stmt = stmt.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		stmt = stmt.Where("action = ?", req.Action)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, err
		}
		at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return domain.ListResponse{}, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListResponse{}, err
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, id)
	}

	var rows []domain.ActivityLog
	err := stmt.
		Order("created_at desc, id desc").
		Limit(pageSize + 1).
		Find(&rows).Error
	if err != nil {
		return domain.ListResponse{}, err
	}

	rows, pageInfo := pagination.BuildPageInfo(rows, pageSize, func(row domain.ActivityLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        row.ID.String(),
			CreatedAt: row.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	return domain.ListResponse{PageInfo: pageInfo, ActivityLogs: rows}, nil
}
