// Package domain holds the plain ownership-scoped records that carry
// no embedded ledger: staff and equipment registers.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidActor = errors.New("invalid_actor")
	ErrInvalidField = errors.New("invalid_field")
)

// Owned is the capability set of a registry row: identity plus a
// single owner fixed at creation.
type Owned interface {
	RecordID() snowflake.ID
	OwnerID() snowflake.ID
	SetIdentity(id, owner snowflake.ID, now time.Time)
}

// OwnedColumns is the shared identity/ownership state of registry
// rows. Exported like gorm.Model so gorm maps the embedded fields.
type OwnedColumns struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CreatedBy snowflake.ID `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (c *OwnedColumns) RecordID() snowflake.ID { return c.ID }
func (c *OwnedColumns) OwnerID() snowflake.ID  { return c.CreatedBy }

func (c *OwnedColumns) SetIdentity(id, owner snowflake.ID, now time.Time) {
	c.ID = id
	c.CreatedBy = owner
	c.CreatedAt = now
	c.UpdatedAt = now
}

type Employee struct {
	OwnedColumns

	Name     string     `gorm:"type:text;not null" json:"name"`
	Position string     `gorm:"type:text" json:"position,omitempty"`
	Phone    string     `gorm:"type:text" json:"phone,omitempty"`
	Salary   float64    `gorm:"not null;default:0" json:"salary"`
	HireDate *time.Time `json:"hire_date,omitempty"`
	Notes    string     `gorm:"type:text" json:"notes,omitempty"`
}

func (Employee) TableName() string { return "employees" }

type Equipment struct {
	OwnedColumns

	Name          string     `gorm:"type:text;not null" json:"name"`
	EquipmentType string     `gorm:"type:text" json:"equipment_type,omitempty"`
	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
	PurchaseCost  float64    `gorm:"not null;default:0" json:"purchase_cost"`
	Condition     string     `gorm:"type:text" json:"condition,omitempty"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`
}

func (Equipment) TableName() string { return "equipment" }
