package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/access"
	"github.com/farmsaathi/farmsaathi/internal/finance/domain"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	pkgdb "github.com/farmsaathi/farmsaathi/pkg/db"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type Repository interface {
	// InsertIdempotent inserts the record unless one with the same
	// source reference already exists. Reports whether a row was
	// written.
	InsertIdempotent(ctx context.Context, db *gorm.DB, record *domain.FinancialRecord) (bool, error)
	FindBySource(ctx context.Context, db *gorm.DB, sourceType string, sourceID snowflake.ID, eventIndex int) (*domain.FinancialRecord, error)
	List(ctx context.Context, db *gorm.DB, actor principal.Principal, req domain.ListRequest) ([]domain.FinancialRecord, error)
	Summarize(ctx context.Context, db *gorm.DB, actor principal.Principal, from, to time.Time) (domain.Summary, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) InsertIdempotent(ctx context.Context, db *gorm.DB, record *domain.FinancialRecord) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO financial_records (
			id, created_by, type, category, amount, transaction_date,
			description, payment_method, source_type, source_id, source_event_index, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_type, source_id, source_event_index) DO NOTHING`,
		record.ID,
		record.CreatedBy,
		string(record.Type),
		record.Category,
		record.Amount,
		record.TransactionDate,
		record.Description,
		record.PaymentMethod,
		record.SourceType,
		record.SourceID,
		record.SourceEventIndex,
		record.CreatedAt,
	)
	if result.Error != nil {
		// Dialects without ON CONFLICT support still surface the race
		// as a unique violation on ux_financial_records_source.
		if pkgdb.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) FindBySource(ctx context.Context, db *gorm.DB, sourceType string, sourceID snowflake.ID, eventIndex int) (*domain.FinancialRecord, error) {
	var record domain.FinancialRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM financial_records
		 WHERE source_type = ? AND source_id = ? AND source_event_index = ?`,
		sourceType,
		sourceID,
		eventIndex,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, actor principal.Principal, req domain.ListRequest) ([]domain.FinancialRecord, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.FinancialRecord{}).
		Scopes(access.Scope(actor))

	if req.Type != "" {
		stmt = stmt.Where("type = ?", req.Type)
	}
	if req.Category != "" {
		stmt = stmt.Where("category = ?", req.Category)
	}
	if req.From != nil {
		stmt = stmt.Where("transaction_date >= ?", *req.From)
	}
	if req.To != nil {
		stmt = stmt.Where("transaction_date <= ?", *req.To)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, id)
	}

	var records []domain.FinancialRecord
	err := stmt.
		Order("created_at desc, id desc").
		Limit(req.PageSize + 1).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, actor principal.Principal, from, to time.Time) (domain.Summary, error) {
	var summary domain.Summary
	err := db.WithContext(ctx).
		Model(&domain.FinancialRecord{}).
		Scopes(access.Scope(actor)).
		Select(`COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0) AS total_income,
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0) AS total_expense`).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Scan(&summary).Error
	if err != nil {
		return domain.Summary{}, err
	}
	summary.NetProfit = summary.TotalIncome - summary.TotalExpense
	return summary, nil
}
