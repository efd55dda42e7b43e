// Package service is the ownership-scoped store for registry records.
// It keeps the same read/write discipline as the ledgered stores
// (scoped reads, unscoped owner resolution before writes) without the
// event machinery those don't need.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/access"
	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/internal/registry/domain"
)

var registryReserved = map[string]struct{}{
	"id":         {},
	"created_by": {},
	"created_at": {},
	"updated_at": {},
}

type Store[T any, P interface {
	*T
	domain.Owned
}] struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	activity activitydomain.Service
	module   string
}

type (
	EmployeeService  = Store[domain.Employee, *domain.Employee]
	EquipmentService = Store[domain.Equipment, *domain.Equipment]
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Activity activitydomain.Service `optional:"true"`
}

func NewEmployeeService(p Params) *EmployeeService {
	return newStore[domain.Employee, *domain.Employee](p, "employees")
}

func NewEquipmentService(p Params) *EquipmentService {
	return newStore[domain.Equipment, *domain.Equipment](p, "equipment")
}

func newStore[T any, P interface {
	*T
	domain.Owned
}](p Params, module string) *Store[T, P] {
	return &Store[T, P]{
		db:       p.DB,
		log:      p.Log.Named(module + ".service"),
		genID:    p.GenID,
		activity: p.Activity,
		module:   module,
	}
}

func (s *Store[T, P]) Create(ctx context.Context, actor principal.Principal, record P) (P, error) {
	if !actor.Valid() {
		return nil, domain.ErrInvalidActor
	}
	record.SetIdentity(s.genID.Generate(), actor.ID, time.Now().UTC())
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, "create", s.module, record.RecordID().String())
	}
	return record, nil
}

func (s *Store[T, P]) Get(ctx context.Context, actor principal.Principal, id snowflake.ID) (P, error) {
	if !actor.Valid() {
		return nil, domain.ErrInvalidActor
	}
	var row T
	err := s.db.WithContext(ctx).
		Scopes(access.Scope(actor)).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Store[T, P]) List(ctx context.Context, actor principal.Principal) ([]P, error) {
	if !actor.Valid() {
		return nil, domain.ErrInvalidActor
	}
	var rows []P
	err := s.db.WithContext(ctx).
		Model(P(new(T))).
		Scopes(access.Scope(actor)).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store[T, P]) Update(ctx context.Context, actor principal.Principal, id snowflake.ID, fields map[string]any) error {
	if !actor.Valid() {
		return domain.ErrInvalidActor
	}
	if len(fields) == 0 {
		return domain.ErrInvalidField
	}
	for column := range fields {
		if _, reserved := registryReserved[column]; reserved {
			return domain.ErrInvalidField
		}
	}
	if err := s.authorizeWrite(ctx, actor, id); err != nil {
		return err
	}
	fields["updated_at"] = time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(P(new(T))).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, "update", s.module, id.String())
	}
	return nil
}

func (s *Store[T, P]) Delete(ctx context.Context, actor principal.Principal, id snowflake.ID) error {
	if !actor.Valid() {
		return domain.ErrInvalidActor
	}
	if err := s.authorizeWrite(ctx, actor, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(P(new(T))).Error; err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, "delete", s.module, id.String())
	}
	return nil
}

func (s *Store[T, P]) authorizeWrite(ctx context.Context, actor principal.Principal, id snowflake.ID) error {
	var owner snowflake.ID
	err := s.db.WithContext(ctx).
		Model(P(new(T))).
		Select("created_by").
		Where("id = ?", id).
		Scan(&owner).Error
	if err != nil {
		return err
	}
	if owner == 0 {
		return domain.ErrNotFound
	}
	return access.AuthorizeWrite(actor, owner)
}
