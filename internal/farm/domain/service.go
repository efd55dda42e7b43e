package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

// ListFilter narrows a scoped listing. The visibility predicate is
// always applied first and AND-combined with these at the query level.
type ListFilter struct {
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListRequest is the read surface for listings.
type ListRequest struct {
	PageToken string
	PageSize  int32
	ListFilter
}

// ListResult carries one page of entities.
type ListResult[P Ledgered] struct {
	pagination.PageInfo
	Items []P `json:"items"`
}

// AppendResult reports a successful append. PostingErr, when set, wraps
// posting.ErrPostingFailed: the append itself committed and must be
// presented as a success with a warning, never rolled back.
type AppendResult[P Ledgered] struct {
	Entity            P
	EventIndex        int
	FinancialRecordID snowflake.ID
	PostingErr        error
}

// Poster derives the financial side effect of a qualifying event. The
// implementation must be idempotent on (entity kind, entity id, event
// index) so retries cannot duplicate records.
type Poster interface {
	PostSale(ctx context.Context, actor principal.Principal, src Ledgered, ev LedgerEvent) (snowflake.ID, error)
}
