// Package posting derives financial ledger entries from qualifying
// events on farm entities. The posting runs outside the entity's
// append transaction: it is at-least-once with a bounded retry, and
// idempotent on the source reference, so the two ledgers converge on
// exactly one record per qualifying event.
package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	obsmetrics "github.com/farmsaathi/farmsaathi/internal/observability/metrics"
	"github.com/farmsaathi/farmsaathi/internal/principal"
)

// ErrPostingFailed marks a financial side effect that could not be
// completed after a successful append. The append is never rolled
// back; callers surface this as a warning and reconciliation replays
// the posting later.
var ErrPostingFailed = errors.New("posting_failed")

const (
	postAttempts = 3
	postBackoff  = 50 * time.Millisecond
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Finance financedomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	finance financedomain.Service
	metrics *obsmetrics.Metrics
}

func New(p Params) farmdomain.Poster {
	return &Service{
		log:     p.Log.Named("posting.service"),
		finance: p.Finance,
		metrics: p.Metrics,
	}
}

// PostSale writes the income record for a sale event. The owner is the
// acting principal: appendEvent already proved it may write the source
// entity, so actor and entity owner are invariant-equal here unless
// the actor is an admin acting on a manager's record, in which case
// the record still lands under the entity's owner.
func (s *Service) PostSale(ctx context.Context, actor principal.Principal, src farmdomain.Ledgered, ev farmdomain.LedgerEvent) (snowflake.ID, error) {
	entry := financedomain.FinancialRecord{
		CreatedBy:        src.OwnerID(),
		Type:             financedomain.RecordIncome,
		Category:         src.FinanceCategory(),
		Amount:           ev.Total,
		TransactionDate:  ev.Date,
		Description:      src.EventDescription(ev),
		PaymentMethod:    ev.PaymentMethod,
		SourceType:       string(src.EntityKind()),
		SourceID:         src.EntityID(),
		SourceEventIndex: ev.Index,
	}

	var lastErr error
	for attempt := 0; attempt < postAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(postBackoff * time.Duration(attempt))
		}
		recordID, err := s.finance.Record(ctx, actor, entry)
		if err == nil {
			s.metrics.RecordPosting(obsmetrics.PostingResultPosted)
			return recordID, nil
		}
		lastErr = err
		s.log.Warn("financial posting attempt failed",
			zap.String("source_type", entry.SourceType),
			zap.String("source_id", entry.SourceID.String()),
			zap.Int("source_event_index", entry.SourceEventIndex),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	s.metrics.RecordPosting(obsmetrics.PostingResultFailed)
	return 0, fmt.Errorf("%w: %v", ErrPostingFailed, lastErr)
}
