package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

// ActivityLog is one best-effort audit row describing who did what.
type ActivityLog struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"not null;index" json:"user_id"`
	Role        string       `gorm:"type:text;not null" json:"role"`
	Action      string       `gorm:"type:text;not null;index" json:"action"`
	Module      string       `gorm:"type:text;not null;index" json:"module"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

type ListRequest struct {
	pagination.Pagination
	Module string
	Action string
}

type ListResponse struct {
	pagination.PageInfo
	ActivityLogs []ActivityLog `json:"activity_logs"`
}

// Service records and lists activity. Record is fire-and-forget: a
// failed write is logged and swallowed, it never fails the operation
// being recorded.
type Service interface {
	Record(ctx context.Context, actor principal.Principal, action, module, description string)
	List(ctx context.Context, actor principal.Principal, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
)
