package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordType is the direction of a financial record.
type RecordType string

const (
	RecordIncome  RecordType = "income"
	RecordExpense RecordType = "expense"
)

// Source types for the back-reference to whatever generated a record.
// Machine postings use the entity kind; hand-entered records use
// SourceManual with the record's own id, so the source uniqueness
// constraint stays meaningful for every row.
const (
	SourceManual = "manual"
)

// Categories the original bookkeeping used for derived income.
const (
	CategoryCropSales      = "crop_sales"
	CategoryLivestockSales = "livestock_sales"
	CategoryInventorySales = "inventory_sales"
	CategoryAdjustment     = "adjustment"
)

// FinancialRecord is one immutable row of the financial ledger. There
// is no update or delete path: corrections are offsetting adjustment
// entries, and records survive deletion of the entity that produced
// them.
type FinancialRecord struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	CreatedBy        snowflake.ID `gorm:"not null;index" json:"created_by"`
	Type             RecordType   `gorm:"type:text;not null;index" json:"type"`
	Category         string       `gorm:"type:text;not null;index" json:"category"`
	Amount           float64      `gorm:"not null" json:"amount"`
	TransactionDate  time.Time    `gorm:"not null;index" json:"transaction_date"`
	Description      string       `gorm:"type:text" json:"description"`
	PaymentMethod    string       `gorm:"type:text" json:"payment_method,omitempty"`
	SourceType       string       `gorm:"type:text;not null;uniqueIndex:ux_financial_records_source,priority:1" json:"source_type"`
	SourceID         snowflake.ID `gorm:"not null;uniqueIndex:ux_financial_records_source,priority:2" json:"source_id"`
	SourceEventIndex int          `gorm:"not null;uniqueIndex:ux_financial_records_source,priority:3" json:"source_event_index"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FinancialRecord) TableName() string { return "financial_records" }

// Summary aggregates the ledger over a date range within the caller's
// visibility.
type Summary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetProfit    float64 `json:"net_profit"`
}
