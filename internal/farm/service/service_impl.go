// Package service implements the ownership-scoped store for entities
// that carry an embedded event ledger. Appends serialize per entity
// through a row-version compare-and-swap: two concurrent sales can
// never both observe the same pre-sale remaining quantity and both
// commit.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/access"
	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/farm/domain"
	"github.com/farmsaathi/farmsaathi/internal/farm/repository"
	obsmetrics "github.com/farmsaathi/farmsaathi/internal/observability/metrics"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

// appendAttempts bounds internal retries after losing a
// concurrent-append race before ErrConflict surfaces to the caller.
const appendAttempts = 3

// reservedColumns may never be touched by a plain field update; they
// change only through the atomic append path or not at all. The
// baseline-quantity columns are reserved too: rebasing them would
// detach the stored aggregate from a replay of the log, so baseline
// growth goes through a production event instead.
var reservedColumns = map[string]struct{}{
	"id":                 {},
	"created_by":         {},
	"events":             {},
	"remaining_quantity": {},
	"total_sale_value":   {},
	"sale_count":         {},
	"version":            {},
	"created_at":         {},
	"updated_at":         {},
	"planted_quantity":   {},
	"quantity":           {},
}

type Store[T any, P interface {
	*T
	domain.Ledgered
}] struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     *repository.Repo[T, P]
	poster   domain.Poster
	activity activitydomain.Service
	metrics  *obsmetrics.Metrics
	module   string
}

func newStore[T any, P interface {
	*T
	domain.Ledgered
}](db *gorm.DB, log *zap.Logger, genID *snowflake.Node, poster domain.Poster, activity activitydomain.Service, metrics *obsmetrics.Metrics, module string) *Store[T, P] {
	return &Store[T, P]{
		db:       db,
		log:      log.Named(module + ".service"),
		genID:    genID,
		repo:     repository.New[T, P](),
		poster:   poster,
		activity: activity,
		metrics:  metrics,
		module:   module,
	}
}

// Create stores a new entity owned by the actor. Any owner the caller
// put on the entity is overwritten, which closes the forged-ownership
// escalation the original system was open to.
func (s *Store[T, P]) Create(ctx context.Context, actor principal.Principal, entity P) (P, error) {
	if !actor.Valid() {
		return nil, domain.ErrInvalidActor
	}
	if entity.BaselineQuantity() < 0 {
		return nil, domain.ErrInvalidEvent
	}

	now := time.Now().UTC()
	entity.SetIdentity(s.genID.Generate(), actor.ID, now)
	entity.SetLedgerState([]domain.LedgerEvent{}, domain.NewAggregate(entity.BaselineQuantity()), now)

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Record(ctx, actor, "create", s.module, fmt.Sprintf("Created %s %s", s.module, entity.EntityID()))
	}
	return entity, nil
}

// Get applies the visibility predicate; a row outside it reads as
// NotFound, never Forbidden, so reads disclose nothing about other
// owners' records.
func (s *Store[T, P]) Get(ctx context.Context, actor principal.Principal, id snowflake.ID) (P, error) {
	if !actor.Valid() {
		return nil, domain.ErrInvalidActor
	}
	entity, err := s.repo.FindVisible(ctx, s.db, actor, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.ErrNotFound
	}
	return entity, nil
}

func (s *Store[T, P]) List(ctx context.Context, actor principal.Principal, req domain.ListRequest) (domain.ListResult[P], error) {
	if !actor.Valid() {
		return domain.ListResult[P]{}, domain.ErrInvalidActor
	}

	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	rows, err := s.repo.List(ctx, s.db, actor, req.ListFilter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResult[P]{}, err
	}

	rows, pageInfo := pagination.BuildPageInfo(rows, pageSize, func(row P) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        row.EntityID().String(),
			CreatedAt: row.CreatedTime().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	return domain.ListResult[P]{PageInfo: pageInfo, Items: rows}, nil
}

// Count reports how many rows the actor can see, for report totals.
func (s *Store[T, P]) Count(ctx context.Context, actor principal.Principal) (int64, error) {
	if !actor.Valid() {
		return 0, domain.ErrInvalidActor
	}
	return s.repo.Count(ctx, s.db, actor)
}

// Update applies a plain field update. The owner is resolved ignoring
// the visibility predicate so that a manager writing to someone else's
// row gets Forbidden, while a write to a missing row gets NotFound.
func (s *Store[T, P]) Update(ctx context.Context, actor principal.Principal, id snowflake.ID, fields map[string]any) error {
	if !actor.Valid() {
		return domain.ErrInvalidActor
	}
	if len(fields) == 0 {
		return domain.ErrInvalidField
	}
	for column := range fields {
		if _, reserved := reservedColumns[column]; reserved {
			return domain.ErrInvalidField
		}
	}
	if status, ok := fields["status"]; ok {
		if !validStatus(status) {
			return domain.ErrInvalidField
		}
	}

	if err := s.authorizeWrite(ctx, actor, id); err != nil {
		return err
	}

	fields["updated_at"] = time.Now().UTC()
	if err := s.repo.UpdateColumns(ctx, s.db, id, fields); err != nil {
		return err
	}

	if s.activity != nil {
		s.activity.Record(ctx, actor, "update", s.module, fmt.Sprintf("Updated %s %s", s.module, id))
	}
	return nil
}

// AppendEvent appends one event to the entity's embedded log,
// recomputes the derived aggregate and transitions the status, all in
// one compare-and-swap write. When the event is a sale, the financial
// posting runs after the append committed; its failure is reported as
// a warning on the result, never as a rollback.
func (s *Store[T, P]) AppendEvent(ctx context.Context, actor principal.Principal, id snowflake.ID, event domain.LedgerEvent) (domain.AppendResult[P], error) {
	var result domain.AppendResult[P]

	if !actor.Valid() {
		return result, domain.ErrInvalidActor
	}
	event, err := event.Normalize()
	if err != nil {
		return result, err
	}
	if err := s.authorizeWrite(ctx, actor, id); err != nil {
		return result, err
	}

	var entity P
	for attempt := 0; ; attempt++ {
		entity, err = s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return result, err
		}
		if entity == nil {
			// Deleted between the owner check and now.
			return result, domain.ErrNotFound
		}

		log := entity.LedgerEvents()
		aggregate, err := domain.Replay(entity.BaselineQuantity(), log)
		if err != nil {
			return result, fmt.Errorf("stored ledger does not replay: %w", err)
		}

		event.Index = len(log)
		event.RecordedAt = time.Now().UTC()

		next, err := aggregate.Apply(event)
		if err != nil {
			return result, err
		}

		now := time.Now().UTC()
		entity.SetLedgerState(append(slices.Clone(log), event), next, now)

		swapped, err := s.repo.CompareAndSwap(ctx, s.db, id, entity.RowVersion(), map[string]any{
			"events":             domain.EventLog(entity.LedgerEvents()),
			"remaining_quantity": next.Remaining,
			"total_sale_value":   next.TotalSaleValue,
			"sale_count":         next.SaleCount,
			"status":             entity.EntityStatus(),
			"updated_at":         now,
		})
		if err != nil {
			return result, err
		}
		if swapped {
			break
		}

		s.metrics.RecordConflict(string(entity.EntityKind()))
		if attempt+1 >= appendAttempts {
			return result, domain.ErrConflict
		}
		time.Sleep(time.Duration(1+rand.Intn(5*(attempt+1))) * time.Millisecond)
	}

	s.metrics.RecordAppend(string(entity.EntityKind()), string(event.Type))
	if s.activity != nil {
		s.activity.Record(ctx, actor, string(event.Type), s.module, entity.EventDescription(event))
	}

	result.Entity = entity
	result.EventIndex = event.Index

	if event.Qualifying() && s.poster != nil {
		recordID, err := s.poster.PostSale(ctx, actor, entity, event)
		if err != nil {
			s.log.Warn("financial posting failed after successful append",
				zap.String("entity_id", id.String()),
				zap.Int("event_index", event.Index),
				zap.Error(err),
			)
			result.PostingErr = err
		} else {
			result.FinancialRecordID = recordID
		}
	}

	return result, nil
}

// Delete removes the entity row. Financial records already derived
// from its ledger are kept on purpose: they are the durable audit
// trail and outlive their source.
func (s *Store[T, P]) Delete(ctx context.Context, actor principal.Principal, id snowflake.ID) error {
	if !actor.Valid() {
		return domain.ErrInvalidActor
	}
	if err := s.authorizeWrite(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, "delete", s.module, fmt.Sprintf("Deleted %s %s", s.module, id))
	}
	return nil
}

func (s *Store[T, P]) authorizeWrite(ctx context.Context, actor principal.Principal, id snowflake.ID) error {
	owner, err := s.repo.Owner(ctx, s.db, id)
	if err != nil {
		return err
	}
	if owner == 0 {
		return domain.ErrNotFound
	}
	return access.AuthorizeWrite(actor, owner)
}

func validStatus(value any) bool {
	status, ok := value.(string)
	if !ok {
		return false
	}
	switch status {
	case domain.StatusActive, domain.StatusSold, domain.StatusDepleted:
		return true
	default:
		return false
	}
}
