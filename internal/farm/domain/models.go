package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind discriminates the entity kinds that carry an embedded ledger.
type Kind string

const (
	KindCrop      Kind = "crop"
	KindLivestock Kind = "livestock"
	KindInventory Kind = "inventory"
)

const (
	StatusActive = "active"
	// StatusSold is the terminal status for crops and livestock.
	StatusSold = "sold"
	// StatusDepleted is the terminal status for inventory items.
	StatusDepleted = "depleted"
)

// EventLog is the serialized append-only event sequence stored in the
// same row as the entity. Keeping it in-row trades join complexity for
// a single-row atomic update of log, aggregate and status.
type EventLog = datatypes.JSONSlice[LedgerEvent]

// Ledgered is the capability set the store is generic over: a
// snowflake identity, exactly one immutable owner, an embedded event
// log with derived aggregate columns, and a row version for optimistic
// concurrency.
type Ledgered interface {
	EntityID() snowflake.ID
	OwnerID() snowflake.ID
	EntityKind() Kind
	BaselineQuantity() float64
	LedgerEvents() []LedgerEvent
	RowVersion() int64
	EntityStatus() string
	CreatedTime() time.Time

	// SetIdentity stamps id and owner at creation. The owner is always
	// the creating principal; caller-supplied owners are ignored.
	SetIdentity(id, owner snowflake.ID, now time.Time)
	// SetLedgerState replaces the log and aggregate columns together
	// and derives the status from the aggregate. Only the store calls
	// this, inside the atomic append.
	SetLedgerState(events []LedgerEvent, agg Aggregate, now time.Time)

	// FinanceCategory names the income category a qualifying event
	// posts under.
	FinanceCategory() string
	// EventDescription renders the human description for the financial
	// record derived from ev.
	EventDescription(ev LedgerEvent) string
}

// LedgerColumns is the shared embedded-ledger state of every kind.
// Exported like gorm.Model so gorm maps the embedded fields.
type LedgerColumns struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	CreatedBy         snowflake.ID `gorm:"not null;index" json:"created_by"`
	Status            string       `gorm:"type:text;not null;default:'active'" json:"status"`
	Events            EventLog     `json:"events"`
	RemainingQuantity float64      `gorm:"not null;default:0" json:"remaining_quantity"`
	TotalSaleValue    float64      `gorm:"not null;default:0" json:"total_sale_value"`
	SaleCount         int          `gorm:"not null;default:0" json:"sale_count"`
	Version           int64        `gorm:"not null;default:1" json:"-"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (c *LedgerColumns) EntityID() snowflake.ID { return c.ID }
func (c *LedgerColumns) OwnerID() snowflake.ID { return c.CreatedBy }
func (c *LedgerColumns) LedgerEvents() []LedgerEvent { return c.Events }
func (c *LedgerColumns) RowVersion() int64 { return c.Version }
func (c *LedgerColumns) EntityStatus() string { return c.Status }
func (c *LedgerColumns) CreatedTime() time.Time { return c.CreatedAt }

func (c *LedgerColumns) SetIdentity(id, owner snowflake.ID, now time.Time) {
	c.ID = id
	c.CreatedBy = owner
	c.Status = StatusActive
	c.Events = EventLog{}
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (c *LedgerColumns) applyLedgerState(events []LedgerEvent, agg Aggregate, terminal string, now time.Time) {
	c.Events = events
	c.RemainingQuantity = agg.Remaining
	c.TotalSaleValue = agg.TotalSaleValue
	c.SaleCount = agg.SaleCount
	if agg.Depleted() {
		c.Status = terminal
	} else {
		c.Status = StatusActive
	}
	c.UpdatedAt = now
}

// Crop is a planted crop with its sales/harvest ledger embedded.
type Crop struct {
	LedgerColumns

	Name            string     `gorm:"type:text;not null" json:"name"`
	Variety         string     `gorm:"type:text" json:"variety,omitempty"`
	FieldName       string     `gorm:"type:text" json:"field_name,omitempty"`
	Unit            string     `gorm:"type:text;not null;default:'kg'" json:"unit"`
	PlantedQuantity float64    `gorm:"not null" json:"planted_quantity"`
	PlantingDate    *time.Time `json:"planting_date,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
}

func (Crop) TableName() string { return "crops" }

func (c *Crop) EntityKind() Kind { return KindCrop }
func (c *Crop) BaselineQuantity() float64 { return c.PlantedQuantity }
func (c *Crop) FinanceCategory() string { return "crop_sales" }

func (c *Crop) SetLedgerState(events []LedgerEvent, agg Aggregate, now time.Time) {
	c.applyLedgerState(events, agg, StatusSold, now)
}

func (c *Crop) EventDescription(ev LedgerEvent) string {
	if ev.Buyer != "" {
		return fmt.Sprintf("Sale of %s - %g %s to %s", c.Name, ev.Quantity, c.Unit, ev.Buyer)
	}
	return fmt.Sprintf("Sale of %s - %g %s", c.Name, ev.Quantity, c.Unit)
}

// Livestock is an animal or batch of animals with its sale and
// production ledger embedded.
type Livestock struct {
	LedgerColumns

	TagNumber    string     `gorm:"type:text;not null" json:"tag_number"`
	AnimalType   string     `gorm:"type:text;not null" json:"animal_type"`
	Breed        string     `gorm:"type:text" json:"breed,omitempty"`
	Quantity     float64    `gorm:"not null;default:1" json:"quantity"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	PurchaseCost float64    `gorm:"not null;default:0" json:"purchase_cost"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
}

func (Livestock) TableName() string { return "livestock" }

func (l *Livestock) EntityKind() Kind { return KindLivestock }
func (l *Livestock) BaselineQuantity() float64 { return l.Quantity }
func (l *Livestock) FinanceCategory() string { return "livestock_sales" }

func (l *Livestock) SetLedgerState(events []LedgerEvent, agg Aggregate, now time.Time) {
	l.applyLedgerState(events, agg, StatusSold, now)
}

func (l *Livestock) EventDescription(ev LedgerEvent) string {
	if ev.Buyer != "" {
		return fmt.Sprintf("Sale of %s - %g %s to %s", l.TagNumber, ev.Quantity, l.AnimalType, ev.Buyer)
	}
	return fmt.Sprintf("Sale of %s - %g %s", l.TagNumber, ev.Quantity, l.AnimalType)
}

// InventoryItem is a stocked supply (feed, seed, fertilizer) whose
// consumption and resale are tracked through the embedded ledger.
type InventoryItem struct {
	LedgerColumns

	Name     string  `gorm:"type:text;not null" json:"name"`
	Category string  `gorm:"type:text" json:"category,omitempty"`
	Unit     string  `gorm:"type:text;not null;default:'unit'" json:"unit"`
	Quantity float64 `gorm:"not null" json:"quantity"`
	UnitCost float64 `gorm:"not null;default:0" json:"unit_cost"`
	Notes    string  `gorm:"type:text" json:"notes,omitempty"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

func (i *InventoryItem) EntityKind() Kind { return KindInventory }
func (i *InventoryItem) BaselineQuantity() float64 { return i.Quantity }
func (i *InventoryItem) FinanceCategory() string { return "inventory_sales" }

func (i *InventoryItem) SetLedgerState(events []LedgerEvent, agg Aggregate, now time.Time) {
	i.applyLedgerState(events, agg, StatusDepleted, now)
}

func (i *InventoryItem) EventDescription(ev LedgerEvent) string {
	if ev.Buyer != "" {
		return fmt.Sprintf("Sale of %s - %g %s to %s", i.Name, ev.Quantity, i.Unit, ev.Buyer)
	}
	return fmt.Sprintf("Sale of %s - %g %s", i.Name, ev.Quantity, i.Unit)
}
