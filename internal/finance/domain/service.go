package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type ListRequest struct {
	pagination.Pagination
	Type     string
	Category string
	From     *time.Time
	To       *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Records []FinancialRecord `json:"records"`
}

// Service is the append-only financial ledger. Record inserts are
// idempotent on (source_type, source_id, source_event_index): a retry
// for the same source reference returns the already-stored record
// instead of creating a duplicate.
type Service interface {
	Record(ctx context.Context, actor principal.Principal, entry FinancialRecord) (snowflake.ID, error)
	List(ctx context.Context, actor principal.Principal, req ListRequest) (ListResponse, error)
	Summarize(ctx context.Context, actor principal.Principal, from, to time.Time) (Summary, error)
}

var (
	ErrInvalidActor   = errors.New("invalid_actor")
	ErrInvalidRecord  = errors.New("invalid_record")
	ErrInvalidRange   = errors.New("invalid_range")
	ErrForbiddenOwner = errors.New("forbidden_owner")
)
